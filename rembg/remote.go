package rembg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"strconv"
	"strings"

	nhttp "github.com/chaos-io/bgremover/util/http"
)

const removePath = "/api/remove"

// RemoteRemover 把图片以 multipart 上传到远端抠图服务（本项目 serve 子命令提供的
// /api/remove 接口即可），并解码返回的图片
/*
	curl -X POST "$BASE_URL/api/remove" \
	  -F "file=@my_image.png" \
	  -F "aggressiveness=30" \
	  -F "format=png" -o out.png
*/
type RemoteRemover struct {
	baseURL string
	params  Params
	cli     nhttp.IClient
}

func NewRemoteRemover(baseURL string, p Params) *RemoteRemover {
	return &RemoteRemover{
		baseURL: strings.TrimRight(baseURL, "/"),
		params:  p,
		cli:     nhttp.NewHTTPClient(),
	}
}

func (r *RemoteRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	body, contentType, err := r.form(img)
	if err != nil {
		return nil, err
	}

	var raw []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: r.baseURL + removePath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": contentType},
		Body:       body,
		Response:   &raw,
	}
	if err := r.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	out, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode response image: %w", err)
	}
	return out, nil
}

func (r *RemoteRemover) form(img image.Image) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if err := png.Encode(part, img); err != nil {
		return nil, "", fmt.Errorf("encode form file: %w", err)
	}

	// 阈值全部显式发送，远端无需按激进度重新推导，结果与本地一致
	fields := map[string]string{
		"aggressiveness":       strconv.FormatFloat(r.params.Aggressiveness*100, 'f', -1, 64),
		"morph":                strconv.Itoa(r.params.MorphRadius),
		"feather":              strconv.Itoa(r.params.FeatherRadius),
		"guard":                strconv.Itoa(r.params.ExtremeBrightnessGuard),
		"brightness_threshold": strconv.Itoa(r.params.BrightnessThreshold),
		"distance_threshold":   strconv.Itoa(r.params.DistanceThreshold),
		"value_threshold":      strconv.Itoa(r.params.ValueThreshold),
		"saturation_threshold": strconv.FormatFloat(r.params.SaturationThreshold, 'g', -1, 64),
		"uniform_threshold":    strconv.Itoa(r.params.UniformThreshold),
		"uniform_brightness":   strconv.Itoa(r.params.UniformBrightness),
		"format":               "png",
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

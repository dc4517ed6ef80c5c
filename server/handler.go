package server

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"

	"github.com/chaos-io/bgremover/preprocess"
	"github.com/chaos-io/bgremover/rembg"
	"github.com/chaos-io/bgremover/rembg/reveal"
	"github.com/chaos-io/bgremover/util"
	"github.com/gin-gonic/gin"
)

// renderRequest 未给出的字段取配置中的默认值
//
//	aggressiveness 0-100，可带小数
//	morph          负数表示由激进度推导
//	*_threshold    覆盖由激进度推导出的单个阈值
type renderRequest struct {
	Aggressiveness *float64 `json:"aggressiveness" form:"aggressiveness"`
	Feather        *int     `json:"feather" form:"feather"`
	Morph          *int     `json:"morph" form:"morph"`
	Guard          *int     `json:"guard" form:"guard"`
	Format         string   `json:"format" form:"format"`

	Brightness        *int     `json:"brightness_threshold" form:"brightness_threshold"`
	Distance          *int     `json:"distance_threshold" form:"distance_threshold"`
	Value             *int     `json:"value_threshold" form:"value_threshold"`
	Saturation        *float64 `json:"saturation_threshold" form:"saturation_threshold"`
	Uniform           *int     `json:"uniform_threshold" form:"uniform_threshold"`
	UniformBrightness *int     `json:"uniform_brightness" form:"uniform_brightness"`
}

func (r renderRequest) overrides() []rembg.Option {
	var opts []rembg.Option
	if r.Brightness != nil {
		opts = append(opts, rembg.WithBrightnessThreshold(*r.Brightness))
	}
	if r.Distance != nil {
		opts = append(opts, rembg.WithDistanceThreshold(*r.Distance))
	}
	if r.Value != nil {
		opts = append(opts, rembg.WithValueThreshold(*r.Value))
	}
	if r.Saturation != nil {
		opts = append(opts, rembg.WithSaturationThreshold(*r.Saturation))
	}
	if r.Uniform != nil {
		opts = append(opts, rembg.WithUniformThreshold(*r.Uniform))
	}
	if r.UniformBrightness != nil {
		opts = append(opts, rembg.WithUniformBrightness(*r.UniformBrightness))
	}
	return opts
}

type renderResponse struct {
	Token       uint64 `json:"token"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Flooded     int    `json:"flooded"`
	Closed      int    `json:"closed"`
	Transparent int    `json:"transparent"`
	ElapsedMS   int64  `json:"elapsed_ms"`
}

func (s *Server) params(req renderRequest) (rembg.Params, error) {
	cfg := s.cfg
	if req.Feather != nil {
		cfg.Feather = *req.Feather
	}
	if req.Morph != nil {
		cfg.Morph = *req.Morph
	}
	if req.Guard != nil {
		cfg.ExtremeGuard = *req.Guard
	}

	percent := float64(cfg.Aggressiveness)
	if req.Aggressiveness != nil {
		percent = *req.Aggressiveness
	}
	return rembg.NewParams(percent/100, append(cfg.Options(), req.overrides()...)...)
}

func (s *Server) format(name string) (util.Format, error) {
	if name == "" {
		name = s.cfg.OutputFormat
	}
	return util.ParseFormat(name)
}

// readUpload 读取 multipart 的 file 字段，解码并缩放到 MaxSide 以内
func (s *Server) readUpload(c *gin.Context) (*image.NRGBA, error) {
	if c.Request.ContentLength > s.cfg.MaxUploadBytes {
		return nil, errTooLarge
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errTooLarge
		}
		return nil, fmt.Errorf("read form file: %w: %w", errBadRequest, err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open form file: %w", err)
	}
	defer f.Close()

	img, err := util.DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w: %w", errBadRequest, err)
	}
	return preprocess.ResizeWithinMax(preprocess.ToNRGBA(img), s.cfg.MaxSide), nil
}

func (s *Server) writeImage(c *gin.Context, img image.Image, format util.Format) {
	var buf bytes.Buffer
	if err := util.EncodeImage(&buf, img, format); err != nil {
		abortWithError(c, fmt.Errorf("encode image: %w", err))
		return
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
}

// handleRemove 一次性去背景，直接返回图片
func (s *Server) handleRemove(c *gin.Context) {
	img, err := s.readUpload(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var req renderRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, fmt.Errorf("bind form: %w: %w", errBadRequest, err))
		return
	}
	p, err := s.params(req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	format, err := s.format(req.Format)
	if err != nil {
		abortWithError(c, err)
		return
	}

	pre := preprocess.NewPreprocessor(rembg.NewColorRemover(p))
	pre.MaxSide = s.cfg.MaxSide
	pre.KeepAlpha = false

	out, err := pre.ImagePreprocess(c.Request.Context(), img)
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.writeImage(c, out, format)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	img, err := s.readUpload(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	buf := rembg.BufferFromImage(img)
	if err := buf.Validate(); err != nil {
		abortWithError(c, err)
		return
	}

	sess := s.store.Create(buf)
	s.log.Info().Str("session", sess.ID).Int("width", buf.Width).Int("height", buf.Height).Msg("session created")
	c.JSON(http.StatusCreated, gin.H{"id": sess.ID, "width": buf.Width, "height": buf.Height})
}

// handleRender 以新参数重算。同一会话上更新的请求会取消旧请求，旧请求返回 409
func (s *Server) handleRender(c *gin.Context) {
	sess, err := s.store.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, fmt.Errorf("bind json: %w: %w", errBadRequest, err))
		return
	}
	p, err := s.params(req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	var committed *rembg.Result
	token, err := sess.ctrl.Run(c.Request.Context(), sess.src, p, func(t rembg.Token, res *rembg.Result) {
		sess.commit(t, res)
		committed = res
	})
	if err != nil {
		if errors.Is(err, rembg.ErrSuperseded) {
			s.log.Debug().Str("session", sess.ID).Uint64("token", uint64(token)).Msg("render superseded")
		}
		abortWithError(c, err)
		return
	}

	st := committed.Stats
	c.JSON(http.StatusOK, renderResponse{
		Token:       uint64(token),
		Width:       committed.Buffer.Width,
		Height:      committed.Buffer.Height,
		Flooded:     st.Flooded,
		Closed:      st.Closed,
		Transparent: st.Feathered,
		ElapsedMS:   st.Elapsed.Milliseconds(),
	})
}

// handleResult 最近一次提交的结果；thumb=N 时返回最长边为 N 的预览图
func (s *Server) handleResult(c *gin.Context) {
	sess, err := s.store.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	res, token, err := sess.Latest()
	if err != nil {
		abortWithError(c, err)
		return
	}
	format, err := s.format(c.Query("format"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	var img image.Image = res.Buffer.NRGBA()
	if thumb := c.Query("thumb"); thumb != "" {
		side, err := strconv.Atoi(thumb)
		if err != nil || side <= 0 {
			abortWithError(c, fmt.Errorf("thumb %q: %w", thumb, errBadRequest))
			return
		}
		img = preprocess.Thumbnail(img, side)
	}

	c.Header("X-Render-Token", strconv.FormatUint(uint64(token), 10))
	s.writeImage(c, img, format)
}

// handleReveal 最近一次结果的边缘、内部像素数，供前端安排逐步显现
func (s *Server) handleReveal(c *gin.Context) {
	sess, err := s.store.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	res, token, err := sess.Latest()
	if err != nil {
		abortWithError(c, err)
		return
	}

	edges, interior := reveal.Order(res.Mask)
	c.JSON(http.StatusOK, gin.H{"token": uint64(token), "edges": len(edges), "interior": len(interior)})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.store.Delete(c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package rembg

import "errors"

var (
	// ErrInvalidDimensions 宽高非法，或像素缓冲长度与 width*height*4 不一致
	ErrInvalidDimensions = errors.New("invalid dimensions")
	// ErrInvalidParameter 参数超出取值范围
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrSuperseded 本次运行已被更新的调用取代，结果不应再提交
	ErrSuperseded = errors.New("run superseded by a newer invocation")
)

package errs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	pkgerr "github.com/pkg/errors"
)

// Error 业务错误的最小接口：所有带码错误都实现它
type Error interface {
	ECode() int
	EMsg() string
	DDetail() string
	error
}

// NewCodeError 构造一个带码错误（不含堆栈；Wrap 时才附加）
func NewCodeError(code int, msg string) CodeError {
	return CodeError{
		Code: code,
		Msg:  msg,
	}
}

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func (e CodeError) ECode() int      { return e.Code }
func (e CodeError) EMsg() string    { return e.Msg }
func (e CodeError) DDetail() string { return e.Detail }

// WithDetail 追加细节，返回新副本（原值不变）
func (e CodeError) WithDetail(detail string) CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return CodeError{
		Code:   e.Code,
		Msg:    e.Msg,
		Detail: d,
	}
}

// Wrap 附加调用堆栈
func (e CodeError) Wrap() error {
	return pkgerr.WithStack(e)
}

// WrapMsg 追加细节并附加堆栈
func (e CodeError) WrapMsg(msg string, kv ...any) error {
	return pkgerr.WithStack(e.WithDetail(toString(msg, kv)))
}

// Is 按错误码判等，支持 errors.Is(err, ErrArgs) 形式
func (e CodeError) Is(err error) bool {
	var codeErr CodeError
	if !errors.As(err, &codeErr) {
		return false
	}
	return e.Code == codeErr.Code
}

func (e CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// New 普通错误（无码），带堆栈
func New(msg string) error {
	return pkgerr.New(msg)
}

// Wrap 对任意错误附加堆栈；nil 透传
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	return pkgerr.WithStack(err)
}

// WrapMsg 对任意错误附加消息与堆栈；nil 透传
func WrapMsg(err error, msg string, kv ...any) error {
	if err == nil {
		return nil
	}
	return pkgerr.WithMessage(err, toString(msg, kv))
}

// CodeOf 取出错误码；非带码错误一律按 ServerInternalError 处理
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	var codeErr CodeError
	if errors.As(err, &codeErr) {
		return codeErr.Code
	}
	return ServerInternalError
}

// MsgOf 取出用户可见的错误消息；非带码错误返回原始 Error()
func MsgOf(err error) string {
	if err == nil {
		return ""
	}
	var codeErr CodeError
	if errors.As(err, &codeErr) {
		if codeErr.Detail != "" {
			return codeErr.Msg + ": " + codeErr.Detail
		}
		return codeErr.Msg
	}
	return err.Error()
}

// Unwrap 展开到最底层错误
func Unwrap(err error) error {
	for err != nil {
		unwrap, ok := err.(interface {
			error
			Unwrap() error
		})
		if !ok {
			break
		}
		next := unwrap.Unwrap()
		if next == nil {
			return err
		}
		err = next
	}
	return err
}

func toString(msg string, kv []any) string {
	if len(kv) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		sb.WriteString(" ")
		sb.WriteString(fmt.Sprint(kv[i]))
		sb.WriteString("=")
		if i+1 < len(kv) {
			sb.WriteString(fmt.Sprint(kv[i+1]))
		} else {
			sb.WriteString("<missing>")
		}
	}
	return sb.String()
}

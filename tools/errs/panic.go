package errs

import (
	"fmt"

	pkgerr "github.com/pkg/errors"
)

// ErrPanic 把 recover() 的结果转成带堆栈的内部错误
func ErrPanic(r any) error {
	return ErrPanicMsg(r, ServerInternalError, "panic error")
}

func ErrPanicMsg(r any, code int, msg string) error {
	if r == nil {
		return nil
	}
	err := CodeError{
		Code:   code,
		Msg:    msg,
		Detail: fmt.Sprint(r),
	}
	return pkgerr.WithStack(err)
}

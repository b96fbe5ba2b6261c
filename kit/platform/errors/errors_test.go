package errors_test

import (
	"fmt"
	"testing"

	"github.com/influxdata/colstore/kit/platform/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  *errors.Error
		want string
	}{
		{name: "msg", err: &errors.Error{Code: errors.EInvalid, Msg: "bad name"}, want: "bad name"},
		{name: "msg and err", err: &errors.Error{Msg: "open", Err: fmt.Errorf("boom")}, want: "open: boom"},
		{name: "err", err: &errors.Error{Err: fmt.Errorf("boom")}, want: "boom"},
		{name: "code only", err: &errors.Error{Code: errors.ENotFound}, want: "<not found>"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorCode(t *testing.T) {
	require.Equal(t, "", errors.ErrorCode(nil))
	require.Equal(t, errors.EInternal, errors.ErrorCode(fmt.Errorf("plain")))

	inner := errors.Errorf(errors.ENotImplemented, "storage.MakeObjectSelector", "multi-valued")
	outer := &errors.Error{Op: "aggregation.Build", Err: inner}
	require.Equal(t, errors.ENotImplemented, errors.ErrorCode(outer))
	require.Equal(t, errors.ENotImplemented, errors.ErrorCode(pkgerrors.Wrap(outer, "loading")))
	require.Equal(t, "aggregation.Build", errors.ErrorOp(outer))
	require.Equal(t, "storage.MakeObjectSelector", errors.ErrorOp(&errors.Error{Err: inner}))
	require.Equal(t, "multi-valued", errors.ErrorMessage(outer))
}

func TestErrorMessage_Internal(t *testing.T) {
	require.Equal(t, "An internal error has occurred.", errors.ErrorMessage(fmt.Errorf("plain")))
	require.Equal(t, "", errors.ErrorOp(fmt.Errorf("plain")))
}

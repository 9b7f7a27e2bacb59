package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_MarshalSuccess(t *testing.T) {
	res := Paged([]string{"a"}, Pagination{Page: 1, PageSize: 10, TotalCount: 1, TotalPages: 1})

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":["a"],"pagination":{"page":1,"page_size":10,"total_count":1,"total_pages":1}}`, string(raw))
}

func TestResult_MarshalEmptyListKeepsData(t *testing.T) {
	raw, err := json.Marshal(OK([]string{}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":[]}`, string(raw))
}

func TestResult_MarshalFailure(t *testing.T) {
	res := Fail[*Title](FailureNotFound, "title %s not found", "abc")

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"kind":"not_found","message":"title abc not found"}}`, string(raw))
	assert.Equal(t, FailureNotFound, res.Kind())
}

func TestFailWith_PropagatesFailure(t *testing.T) {
	src := Fail[*Account](FailureInvalidID, "bad id")
	dst := FailWith[[]string](src.Err)

	assert.False(t, dst.Success)
	assert.Same(t, src.Err, dst.Err)

	var f *Failure
	require.True(t, errors.As(error(dst.Err), &f))
	assert.Equal(t, "invalid_id: bad id", f.Error())
}

func TestResult_KindOnSuccess(t *testing.T) {
	assert.Equal(t, FailureKind(""), OK(1).Kind())
}

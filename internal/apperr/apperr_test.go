package apperr

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, KindValidation.Status())
	assert.Equal(t, http.StatusUnprocessableEntity, KindParse.Status())
	assert.Equal(t, http.StatusNotFound, KindNotFound.Status())
	assert.Equal(t, http.StatusConflict, KindConflict.Status())
	assert.Equal(t, http.StatusForbidden, KindForbidden.Status())
	assert.Equal(t, http.StatusInternalServerError, KindPersistence.Status())
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("create relay: %w", Conflict("actuator-relay", "duplicate identity", nil))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindNotFound))

	assert.Equal(t, KindPersistence, KindOf(sql.ErrConnDone))
}

func TestPublicDetail(t *testing.T) {
	v := Validation("actuator-relay", "channel", "must be within 1..16")
	assert.Equal(t, "channel must be within 1..16", PublicDetail(v))
	assert.Equal(t, "actuator-relay: channel: must be within 1..16", v.Error())

	p := Persistence("mq5", sql.ErrConnDone)
	assert.Equal(t, "internal server error", PublicDetail(p))
	assert.ErrorIs(t, p, sql.ErrConnDone)
}

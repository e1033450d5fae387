package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/memory", nil)
	page, limit := pagination(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
}

func TestPaginationExplicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/memory?page=3&limit=25", nil)
	page, limit := pagination(r)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)
}

func TestPaginationRejectsOutOfRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/memory?page=-1&limit=500", nil)
	page, limit := pagination(r)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
}

func TestPaginationDTO(t *testing.T) {
	dto := paginationDTO(2, 10, 31)
	assert.Equal(t, 2, dto["page"])
	assert.Equal(t, int64(31), dto["total"])
	assert.Equal(t, int64(4), dto["totalPages"])

	dto = paginationDTO(1, 10, 0)
	assert.Equal(t, int64(0), dto["totalPages"])
}

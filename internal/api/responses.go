// responses.go - Response shapes and content negotiation
package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/equipment-visualizer/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

const mimeMsgpack = "application/msgpack"

// datasetResponse is a dataset with its parsed rows.
type datasetResponse struct {
	*models.Dataset
	Columns       []models.Column          `json:"columns"`
	EquipmentData []map[string]interface{} `json:"equipment_data"`
}

func newDatasetResponse(ds *models.Dataset, t *models.Table) *datasetResponse {
	return &datasetResponse{
		Dataset:       ds,
		Columns:       t.Columns,
		EquipmentData: t.Records(),
	}
}

// wantsMsgpack reports whether the client asked for MessagePack.
func wantsMsgpack(c echo.Context) bool {
	if c.QueryParam("format") == "msgpack" {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), mimeMsgpack)
}

// encodeMsgpack encodes v using its json field names.
func encodeMsgpack(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// respond writes v as JSON, or as MessagePack when negotiated.
func respond(c echo.Context, status int, v interface{}) error {
	if !wantsMsgpack(c) {
		return c.JSON(status, v)
	}
	data, err := encodeMsgpack(v)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(status, mimeMsgpack, data)
}

// attachment sends a generated file for download.
func attachment(c echo.Context, contentType, filename string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, contentType, data)
}

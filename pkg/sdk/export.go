package sdk

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// exportSchemaJSON describes the document served by /export/json.
const exportSchemaJSON = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "text", "category"],
    "properties": {
      "id": { "type": "integer" },
      "text": { "type": ["string", "null"] },
      "category": { "type": ["string", "null"] },
      "sentiment": { "type": ["string", "null"] },
      "user_name": { "type": ["string", "null"] },
      "timestamp": { "type": ["string", "null"] },
      "screenshot": { "type": ["string", "null"] }
    }
  }
}`

var exportSchemaLoader = gojsonschema.NewStringLoader(exportSchemaJSON)

// csvHeader is the first row of /export/csv.
var csvHeader = []string{"ID", "Text", "Category", "Sentiment", "User", "Timestamp", "Screenshot"}

// Export downloads the full collection in the given format. Both endpoints
// require an admin session. The document is validated before it is returned.
func (c *Client) Export(ctx context.Context, format ExportFormat) (*Export, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	op := "export " + string(format)
	resp, err := c.send(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/export/" + string(format),
		retry:  true,
	})
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp) {
		apiErr := readAPIError(op, resp)
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			apiErr.Err = ErrAuthorizationDenied
		}
		return nil, apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	records, err := validateExport(format, data)
	if err != nil {
		return nil, err
	}

	return &Export{
		Format:   format,
		Filename: exportFilename(resp.Header.Get("Content-Disposition"), format),
		Data:     data,
		Records:  records,
	}, nil
}

func validateExport(format ExportFormat, data []byte) (int, error) {
	switch format {
	case ExportJSON:
		result, err := gojsonschema.Validate(exportSchemaLoader, gojsonschema.NewBytesLoader(data))
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidExport, err)
		}
		if !result.Valid() {
			issues := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				issues = append(issues, desc.String())
			}
			return 0, fmt.Errorf("%w: %s", ErrInvalidExport, strings.Join(issues, "; "))
		}
		var rows []json.RawMessage
		if err := json.Unmarshal(data, &rows); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidExport, err)
		}
		return len(rows), nil

	case ExportCSV:
		rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrInvalidExport, err)
		}
		if len(rows) == 0 || !slices.Equal(rows[0], csvHeader) {
			return 0, fmt.Errorf("%w: missing csv header", ErrInvalidExport)
		}
		return len(rows) - 1, nil
	}
	return 0, fmt.Errorf("unsupported export format %q", format)
}

// exportFilename takes the attachment filename, stripped of any directory.
func exportFilename(disposition string, format ExportFormat) string {
	if disposition == "" {
		return format.DefaultFilename()
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return format.DefaultFilename()
	}
	name := filepath.Base(params["filename"])
	if name == "" || name == "." || name == string(filepath.Separator) {
		return format.DefaultFilename()
	}
	return name
}

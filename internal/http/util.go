package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"village-connect/pkg/errs"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError 统一错误响应
// 五类核心错误各自映射独立状态码；ValidationError 附带字段级明细
func writeError(w http.ResponseWriter, err error) {
	status := errs.GetErrorStatusCode(err)
	body := map[string]any{"message": err.Error()}
	if ve := errs.AsValidation(err); ve != nil {
		body["message"] = "Validation error"
		body["errors"] = ve.Fields
	}
	if status == http.StatusInternalServerError {
		// 内部错误不向调用方透出细节
		body["message"] = "internal server error"
	}
	writeJSON(w, status, body)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

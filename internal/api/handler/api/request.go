// internal/api/handler/api/request.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/newthinker/stratlab/internal/core"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 1 << 20
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeRequest reads a JSON body into dst and validates its struct tags.
func decodeRequest(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.WrapError(core.ErrInvalidRequest, err)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fe := verrs[0]
			return core.WrapError(core.ErrInvalidRequest,
				fmt.Errorf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return core.WrapError(core.ErrInvalidRequest, err)
	}
	return nil
}

// dateRange parses an inclusive YYYY-MM-DD range. Both dates have been
// checked by the datetime validator already.
func dateRange(from, to string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrInvalidRequest, err)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrInvalidRequest, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, core.WrapError(core.ErrInvalidRequest,
			fmt.Errorf("end %s before start %s", to, from))
	}
	return start, end, nil
}

// jobError converts a failure into the coded error stored on a job.
func jobError(err error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr
	}
	return core.WrapError(core.ErrStrategyFailed, err)
}

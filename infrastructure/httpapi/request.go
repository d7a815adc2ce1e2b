package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"video-toolbox/domain/asset"
)

const maxJSONBody = 1 << 20

// assetID accepts 7 or "7"
type assetID int64

func (id *assetID) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(string(b), `"`)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid video id %s", b)
	}
	*id = assetID(n)
	return nil
}

// seconds accepts 5.5, "5.5" or "00:00:05.500"
type seconds float64

func (s *seconds) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		ts, err := asset.ParseTimestamp(str)
		if err != nil {
			return err
		}
		*s = seconds(ts.Seconds())
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = seconds(f)
	return nil
}

// duration converts to a time.Duration, saturating at the int64 range so
// oversized values still read as too long rather than wrapping negative
func (s seconds) duration() (time.Duration, error) {
	f := float64(s)
	if math.IsNaN(f) {
		return 0, asset.Errorf(asset.ErrValidation, "expiry_duration must be a positive number of seconds.")
	}
	ns := f * float64(time.Second)
	switch {
	case ns >= math.MaxInt64:
		return time.Duration(math.MaxInt64), nil
	case ns <= math.MinInt64:
		return time.Duration(math.MinInt64), nil
	}
	return time.Duration(ns), nil
}

type trimRequest struct {
	VideoID   *assetID `json:"video_id"`
	StartTime *seconds `json:"start_time"`
	EndTime   *seconds `json:"end_time"`
}

type mergeRequest struct {
	VideoIDs []assetID `json:"video_ids"`
}

type shareRequest struct {
	VideoID        *assetID `json:"video_id"`
	ExpiryDuration *seconds `json:"expiry_duration"`
	Notify         []string `json:"notify"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return asset.Wrap(asset.ErrValidation, err, "Request body could not be read.")
	}
	if buf.Len() == 0 {
		return nil
	}

	if err := json.Unmarshal(buf.Bytes(), dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return asset.Wrap(asset.ErrValidation, err, "Invalid value for %s.", typeErr.Field)
		}
		return asset.Wrap(asset.ErrValidation, err, "Request body must be valid JSON.")
	}
	return nil
}

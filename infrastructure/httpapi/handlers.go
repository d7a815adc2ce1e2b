package httpapi

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"video-toolbox/application/ingest"
	"video-toolbox/application/notification"
	"video-toolbox/application/sharing"
	"video-toolbox/application/transcode"
	"video-toolbox/domain/asset"
	domainnotification "video-toolbox/domain/notification"
	"video-toolbox/infrastructure/auth"

	"github.com/gorilla/mux"
)

type videoResponse struct {
	Message string        `json:"message"`
	Video   asset.Summary `json:"video"`
}

type shareResponse struct {
	Message    string    `json:"message"`
	Link       string    `json:"link"`
	ExpiryTime time.Time `json:"expiry_time"`
	Notified   int       `json:"notified"`
}

func (a *api) liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := a.Store.Ping(r.Context()); err != nil {
		a.Logger.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "Video Toolbox is down!")
		return
	}
	io.WriteString(w, "Video Toolbox is running!")
}

func (a *api) userTest(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, claims)
}

func (a *api) upload(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	if a.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.opts.MaxUploadBytes)
	}

	part, err := videoPart(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer part.Close()

	v, err := a.Uploader.Upload(r.Context(), ingest.UploadInput{
		OwnerID:     claims.UserID,
		FileName:    part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
		Body:        part,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, videoResponse{Message: "Video uploaded successfully.", Video: v.Summary()})
}

// videoPart finds the "video" file field without buffering the body
func videoPart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, asset.Wrap(asset.ErrValidation, err, "No file uploaded.")
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, asset.Errorf(asset.ErrValidation, "No file uploaded.")
		}
		if err != nil {
			return nil, asset.Wrap(asset.ErrValidation, err, "Malformed upload body.")
		}
		if part.FormName() == "video" && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

func (a *api) trim(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var req trimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.VideoID == nil || *req.VideoID == 0 || req.StartTime == nil || req.EndTime == nil {
		a.writeError(w, r, asset.Errorf(asset.ErrValidation, "Missing required fields: video_id, start_time, or end_time."))
		return
	}

	v, err := a.Transcoder.Trim(r.Context(), transcode.TrimInput{
		OwnerID: claims.UserID,
		AssetID: int64(*req.VideoID),
		Start:   float64(*req.StartTime),
		End:     float64(*req.EndTime),
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, videoResponse{Message: "Video trimmed successfully.", Video: v.Summary()})
}

func (a *api) merge(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())

	var req mergeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, asset.Wrap(asset.ErrValidation, err, "video_ids must be a non-empty array."))
		return
	}

	ids := make([]int64, len(req.VideoIDs))
	for i, id := range req.VideoIDs {
		ids[i] = int64(id)
	}

	v, err := a.Transcoder.Concatenate(r.Context(), transcode.ConcatInput{OwnerID: claims.UserID, AssetIDs: ids})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, videoResponse{Message: "Video merged successfully.", Video: v.Summary()})
}

func (a *api) share(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.VideoID == nil || *req.VideoID == 0 {
		a.writeError(w, r, asset.Errorf(asset.ErrValidation, "video_id is required."))
		return
	}

	var recipients []domainnotification.Recipient
	if len(req.Notify) > 0 {
		if a.Notifier == nil {
			a.writeError(w, r, asset.Errorf(asset.ErrValidation, "Email notifications are not enabled."))
			return
		}
		var err error
		if recipients, err = a.Notifier.Recipients(req.Notify); err != nil {
			a.writeError(w, r, err)
			return
		}
	}

	in := sharing.IssueInput{AssetID: int64(*req.VideoID)}
	if req.ExpiryDuration != nil {
		d, err := req.ExpiryDuration.duration()
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		in.ExpiresIn = &d
	}

	link, err := a.Issuer.Issue(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	url := a.linkFor(r, link.Token)
	notified := 0
	if len(recipients) > 0 {
		notified = a.announce(r, link, url, recipients)
	}

	writeJSON(w, http.StatusCreated, shareResponse{
		Message:    "Shared link created successfully.",
		Link:       url,
		ExpiryTime: link.ExpiresAt.UTC(),
		Notified:   notified,
	})
}

// announce emails the link and returns how many recipients it reached.
// Failures are logged; the link stands either way.
func (a *api) announce(r *http.Request, link *asset.ShareLink, url string, to []domainnotification.Recipient) int {
	name := "a video"
	if v, err := a.Opener.Resolve(r.Context(), link.Token); err == nil {
		name = v.Basename()
	}

	err := a.Notifier.SendShareLink(notification.ShareRequest{
		To:        to,
		Link:      url,
		ExpiresAt: link.ExpiresAt,
		VideoName: name,
	})
	if err != nil {
		a.Logger.Warn("share email failed", "asset_id", link.AssetID, "recipients", len(to), "error", err)
		return 0
	}
	return len(to)
}

func (a *api) linkFor(r *http.Request, token string) string {
	base := strings.TrimRight(a.opts.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return SharedURL(base, token)
}

// SharedURL is the public delivery address of token under base
func SharedURL(base, token string) string {
	return strings.TrimRight(base, "/") + sharedRoute + token
}

func (a *api) shared(w http.ResponseWriter, r *http.Request) {
	mode, err := sharing.ParseMode(r.URL.Query().Get("action"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	d, err := a.Opener.Open(r.Context(), mux.Vars(r)["token"], mode)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer d.Content.Close()

	w.Header().Set("Content-Type", d.ContentType)
	if d.Mode == sharing.ModeDownload {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Name}))
	}

	http.ServeContent(w, r, d.Name, d.ModTime, d.Content)
}

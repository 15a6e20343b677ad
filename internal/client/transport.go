package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"pet-health-sync/internal/domain/records"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

// HTTPTransport implementa Transport contra el endpoint
// POST {base}/pets/{petID}/sync del server.
type HTTPTransport struct {
	baseURL string
	http    *http.Client

	// Identifica esta instancia del device en los logs del server.
	deviceID string

	// Token Bearer, o identidad de dev si no hay token.
	token         string
	debugUserID   string
	debugUserName string
}

type HTTPTransportConfig struct {
	BaseURL string
	Timeout time.Duration

	// DeviceID distingue devices del mismo usuario. Si viene vacío se genera
	// uno nuevo; persistirlo entre corridas es responsabilidad del caller.
	DeviceID string

	Token string

	// Solo para dev contra un server sin verifier.
	DebugUserID   string
	DebugUserName string
}

func NewHTTPTransport(cfg HTTPTransportConfig) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	deviceID := strings.TrimSpace(cfg.DeviceID)
	if deviceID == "" {
		deviceID = uuid.NewString()
	}
	return &HTTPTransport{
		baseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:          &http.Client{Timeout: timeout},
		deviceID:      deviceID,
		token:         strings.TrimSpace(cfg.Token),
		debugUserID:   strings.TrimSpace(cfg.DebugUserID),
		debugUserName: strings.TrimSpace(cfg.DebugUserName),
	}
}

// syncPayload duplica el shape del handler del server a propósito (mismo
// criterio que writeJSON en los handlers: sin paquete wire compartido hasta
// que haga falta en más lugares).
type syncPayload struct {
	Watermark time.Time `json:"watermark"`

	records.ChangeSet
}

func (t *HTTPTransport) Sync(ctx context.Context, petID string, watermark time.Time, changes records.ChangeSet) (time.Time, records.ChangeSet, error) {
	body, err := json.Marshal(syncPayload{Watermark: watermark, ChangeSet: changes})
	if err != nil {
		return time.Time{}, records.ChangeSet{}, err
	}

	url := fmt.Sprintf("%s/pets/%s/sync", t.baseURL, petID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return time.Time{}, records.ChangeSet{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Device-ID", t.deviceID)

	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	} else if t.debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", t.debugUserID)
		if t.debugUserName != "" {
			req.Header.Set("X-Debug-User-Name", t.debugUserName)
		}
	}

	res, err := t.http.Do(req)
	if err != nil {
		return time.Time{}, records.ChangeSet{}, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		// sigue abajo
	case http.StatusBadRequest:
		return time.Time{}, records.ChangeSet{}, ErrBadRequest
	case http.StatusNotFound:
		return time.Time{}, records.ChangeSet{}, ErrNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return time.Time{}, records.ChangeSet{}, ErrForbidden
	default:
		return time.Time{}, records.ChangeSet{}, fmt.Errorf("sync: unexpected status %d", res.StatusCode)
	}

	var out syncPayload
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		// respuesta inparseable = ronda fallida; el watermark no avanza
		return time.Time{}, records.ChangeSet{}, err
	}

	return out.Watermark, out.ChangeSet, nil
}

// Package report keeps the history of generated reports.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bimmerbailey/aura/internal/chat"
	"github.com/bimmerbailey/aura/internal/predict"
	"github.com/bimmerbailey/aura/internal/prompt"
	"github.com/bimmerbailey/aura/internal/storage"
)

// KeyReports is the storage key of the history.
const KeyReports = "aura.reports"

var (
	ErrNotFound  = errors.New("report not found")
	ErrAmbiguous = errors.New("report id prefix matches more than one report")
)

// Report is one saved analysis. Result holds the validated model output
// in its wire form.
type Report struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	CompanyName string          `json:"companyName"`
	Kind        prompt.Kind     `json:"type"`
	Timestamp   time.Time       `json:"timestamp"`
	Result      json.RawMessage `json:"result"`
	Transcript  []chat.Message  `json:"transcript,omitempty"`
}

// Decode returns the typed result.
func (r Report) Decode() (predict.Result, error) {
	return predict.DecodeResult(r.Kind, r.Result)
}

// MarshalYAML renders Result as a nested document instead of raw bytes.
func (r Report) MarshalYAML() (interface{}, error) {
	var result any
	if err := json.Unmarshal(r.Result, &result); err != nil {
		return nil, fmt.Errorf("decoding report result: %w", err)
	}
	return struct {
		ID          string         `yaml:"id"`
		Title       string         `yaml:"title"`
		CompanyName string         `yaml:"company_name"`
		Kind        prompt.Kind    `yaml:"type"`
		Timestamp   time.Time      `yaml:"timestamp"`
		Result      any            `yaml:"result"`
		Transcript  []chat.Message `yaml:"transcript,omitempty"`
	}{r.ID.String(), r.Title, r.CompanyName, r.Kind, r.Timestamp, result, r.Transcript}, nil
}

// ShortID is the first block of the id, accepted by Get.
func (r Report) ShortID() string {
	return strings.SplitN(r.ID.String(), "-", 2)[0]
}

// History stores reports newest first.
type History struct {
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewHistory returns a History over store.
func NewHistory(store storage.Store, logger *slog.Logger) (*History, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &History{store: store, logger: logger, now: time.Now}, nil
}

// Save records result for companyName. An empty title defaults to the
// kind's display title.
func (h *History) Save(ctx context.Context, title, companyName string, result predict.Result) (Report, error) {
	if result == nil {
		return Report{}, errors.New("result cannot be nil")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return Report{}, fmt.Errorf("encoding result: %w", err)
	}
	if title == "" {
		title = result.Kind().Title()
	}

	r := Report{
		ID:          uuid.New(),
		Title:       title,
		CompanyName: companyName,
		Kind:        result.Kind(),
		Timestamp:   h.now().UTC(),
		Result:      data,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	reports, err := h.load(ctx)
	if err != nil {
		return Report{}, err
	}
	if err := h.save(ctx, append([]Report{r}, reports...)); err != nil {
		return Report{}, err
	}
	h.logger.Info("report saved", "id", r.ID, "kind", string(r.Kind), "company", companyName)
	return r, nil
}

// List returns reports newer than since, newest first. A zero since
// returns everything.
func (h *History) List(ctx context.Context, since time.Time) ([]Report, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reports, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	if since.IsZero() {
		return reports, nil
	}
	filtered := reports[:0]
	for _, r := range reports {
		if r.Timestamp.After(since) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Get finds a report by full id or unique id prefix.
func (h *History) Get(ctx context.Context, ref string) (Report, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reports, err := h.load(ctx)
	if err != nil {
		return Report{}, err
	}
	i, err := find(reports, ref)
	if err != nil {
		return Report{}, err
	}
	return reports[i], nil
}

// Delete removes a report.
func (h *History) Delete(ctx context.Context, ref string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	reports, err := h.load(ctx)
	if err != nil {
		return err
	}
	i, err := find(reports, ref)
	if err != nil {
		return err
	}
	id := reports[i].ID
	if err := h.save(ctx, append(reports[:i], reports[i+1:]...)); err != nil {
		return err
	}
	h.logger.Info("report deleted", "id", id)
	return nil
}

// SaveTranscript attaches a chat transcript to a report, replacing any
// earlier one.
func (h *History) SaveTranscript(ctx context.Context, ref string, messages []chat.Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	reports, err := h.load(ctx)
	if err != nil {
		return err
	}
	i, err := find(reports, ref)
	if err != nil {
		return err
	}
	reports[i].Transcript = append([]chat.Message(nil), messages...)
	return h.save(ctx, reports)
}

func (h *History) load(ctx context.Context) ([]Report, error) {
	data, err := h.store.Get(ctx, KeyReports)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading reports: %w", err)
	}

	var reports []Report
	if err := json.Unmarshal(data, &reports); err != nil {
		h.logger.Warn("discarding unreadable report history", "error", err)
		return nil, nil
	}
	return reports, nil
}

func (h *History) save(ctx context.Context, reports []Report) error {
	data, err := json.Marshal(reports)
	if err != nil {
		return fmt.Errorf("encoding reports: %w", err)
	}
	if err := h.store.Set(ctx, KeyReports, data); err != nil {
		return fmt.Errorf("saving reports: %w", err)
	}
	return nil
}

func find(reports []Report, ref string) (int, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return -1, ErrNotFound
	}
	match := -1
	for i, r := range reports {
		id := r.ID.String()
		if id == ref {
			return i, nil
		}
		if strings.HasPrefix(id, ref) {
			if match >= 0 {
				return -1, fmt.Errorf("%w: %q", ErrAmbiguous, ref)
			}
			match = i
		}
	}
	if match < 0 {
		return -1, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	return match, nil
}

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "palletledger/internal/core/context"
)

// DefaultCompressThreshold is the Details size above which payloads are zstd-compressed.
const DefaultCompressThreshold = 10 * 1024

// Service writes and reads the audit trail.
type Service struct {
	repo              Repository
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
	now               func() time.Time
}

// NewService creates an audit service.
func NewService(repo Repository) (*Service, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Service{
		repo:              repo,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
		now:               func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithCompressThreshold overrides the compression threshold (bytes).
func (s *Service) WithCompressThreshold(n int) *Service {
	s.compressThreshold = n
	return s
}

// Log appends entry. Missing user id and timestamp are filled from ctx and the clock.
func (s *Service) Log(ctx context.Context, entry Entry) (int64, error) {
	if entry.UserID == "" {
		entry.UserID = appctx.GetOperatorID(ctx)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	entry.Compression = CompressionNone
	if len(entry.Details) > s.compressThreshold {
		entry.DetailsCompressed = s.encoder.EncodeAll(entry.Details, nil)
		entry.Details = nil
		entry.Compression = CompressionZstd
	}

	auditID, err := s.repo.Append(ctx, entry)
	if err != nil {
		return 0, fmt.Errorf("append audit entry: %w", err)
	}
	return auditID, nil
}

// LogChange records a metadata mutation of one record.
func (s *Service) LogChange(ctx context.Context, action Action, table, recordID string, changes map[string]any) error {
	details, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	_, err = s.Log(ctx, Entry{
		Action:    action,
		TableName: table,
		RecordID:  recordID,
		Details:   details,
	})
	return err
}

// Trail returns entries matching filter with Details decompressed.
func (s *Service) Trail(ctx context.Context, filter Filter) ([]Entry, error) {
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	for i := range entries {
		e := &entries[i]
		if e.Compression == CompressionZstd && len(e.DetailsCompressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(e.DetailsCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit %d: %w", e.ID, err)
			}
			e.Details = decompressed
			e.DetailsCompressed = nil
		}
	}

	return entries, nil
}

// Diff returns the fields that differ between two states as {"old","new"} pairs.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if fmt.Sprint(oldVal) != fmt.Sprint(newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}

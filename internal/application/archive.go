package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/rivalscope/internal/domain/reports"
)

// ArchiveThenSave writes v to the archive (when configured), hands the object
// URL to setURL, then runs save. If save fails the archived object is removed
// so that no orphan copy outlives a failed report.
func ArchiveThenSave(ctx context.Context, archive reports.Archive, log logrus.FieldLogger,
	key string, v any, setURL func(string), save func() error) error {
	if archive == nil {
		return save()
	}

	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	url, err := archive.Put(ctx, key, body)
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	setURL(url)

	if err := save(); err != nil {
		if rmErr := archive.Remove(ctx, key); rmErr != nil && log != nil {
			log.WithError(rmErr).WithField("key", key).Warn("failed to remove archived report")
		}
		return err
	}
	return nil
}

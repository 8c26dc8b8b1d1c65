package blob

import (
	"context"
	"fmt"
	"strings"

	appcfg "github.com/fdg312/fitness-hub/internal/config"
	log "github.com/sirupsen/logrus"
)

// NewBlobStore picks the export store for mode local, s3 or auto. A nil Store
// means exports are streamed back in the response. The returned string is the
// mode actually in effect.
func NewBlobStore(ctx context.Context, cfg appcfg.BlobConfig, logger log.FieldLogger) (Store, string, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	logger = logger.WithField("component", "blob")

	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	switch mode {
	case "", appcfg.BlobModeLocal:
		logger.Info("mode=local (forced)")
		return nil, appcfg.BlobModeLocal, nil
	case appcfg.BlobModeAuto, appcfg.BlobModeS3:
	default:
		return nil, "", fmt.Errorf("unsupported blob mode: %s", mode)
	}

	forced := mode == appcfg.BlobModeS3
	state := cfg.S3.State()
	entry := logger.WithFields(cfg.S3.LogFields()).WithField("code", state)

	if state != appcfg.S3Ready {
		if forced {
			missing := cfg.S3.MissingRequired()
			entry.Errorf("s3 config incomplete, missing=%v", missing)
			return nil, "", fmt.Errorf("BLOB_MODE=s3 requested but missing required config: %s", strings.Join(missing, ", "))
		}
		if state == appcfg.S3Partial {
			entry.Warnf("s3 partially configured, missing=%v", cfg.S3.MissingRequired())
		} else {
			entry.Info("s3 not configured")
		}
		logger.Info("mode=local (auto, S3 not configured)")
		return nil, appcfg.BlobModeLocal, nil
	}

	store, err := NewS3Store(ctx, cfg.S3)
	if err != nil {
		if forced {
			entry.WithError(err).Error("s3 init failed")
			return nil, "", fmt.Errorf("BLOB_MODE=s3 init failed: %w", err)
		}
		entry.WithError(err).Warn("s3 init failed, falling back to local")
		return nil, appcfg.BlobModeLocal, nil
	}

	if forced {
		entry.Info("mode=s3 (forced)")
	} else {
		entry.Info("mode=s3 (auto, configured)")
	}
	return store, appcfg.BlobModeS3, nil
}

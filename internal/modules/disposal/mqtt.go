package disposal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"wastemap-server/internal/modules/disposal/repository"
	"wastemap-server/internal/modules/disposal/types"
	"wastemap-server/internal/mqtt"
)

// newMessageHandler decodes disposal requests published on the broker and
// stores them. Invalid payloads are logged and dropped.
func newMessageHandler(repo repository.DisposalRepository, logger *slog.Logger) mqtt.MessageHandler {
	return func(ctx context.Context, topic string, payload []byte) error {
		var in types.NewDisposalRequest
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			logger.Warn("failed to parse disposal request message",
				"topic", topic,
				"error", err,
				"payload", string(payload),
			)
			return nil
		}
		if err := in.Validate(); err != nil {
			logger.Warn("invalid disposal request message",
				"topic", topic,
				"address", in.Address,
				"error", err,
			)
			return nil
		}

		req, err := repo.CreateDisposalRequest(ctx, in)
		if err != nil {
			return fmt.Errorf("store disposal request for %q: %w", in.Address, err)
		}
		logger.Debug("stored disposal request from mqtt",
			"id", req.ID,
			"business_id", req.BusinessID,
			"waste_type", req.WasteType,
		)
		return nil
	}
}

func registerMQTTHandler(subscriber mqtt.MQTTSubscriber, repo repository.DisposalRepository, logger *slog.Logger) {
	subscriber.SetMessageHandler(newMessageHandler(repo, logger))
}

package download

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"stylus/internal/logging"
	"stylus/internal/queue"
	"stylus/internal/search"
	"stylus/internal/services"
)

// watch polls the peer's transfer queue until the candidate's file reaches a
// terminal state. Progress ticks are persisted so the queue reflects live
// transfer state. Timeouts and shutdown both cancel the transfer server-side
// so slskd does not keep a dead slot occupied.
func (d *Downloader) watch(ctx context.Context, item *queue.Item, candidate search.Scored) error {
	logger := logging.WithContext(ctx, d.logger)
	deadline := time.Now().Add(d.timeout)
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	var transferID string
	for {
		if time.Now().After(deadline) {
			d.cancelTransfer(ctx, candidate.Username, transferID)
			return services.Wrap(
				services.ErrTimeout, "downloader", "wait for transfer",
				fmt.Sprintf("Transfer did not finish within %s", d.timeout), nil)
		}
		select {
		case <-ctx.Done():
			d.cancelTransfer(context.WithoutCancel(ctx), candidate.Username, transferID)
			return ctx.Err()
		case <-ticker.C:
		}

		transfers, err := d.client.Downloads(ctx, candidate.Username)
		if err != nil {
			// Transient poll failures retry on the next tick; the timeout
			// bounds how long that can go on.
			logger.Warn("transfer poll failed", logging.Error(err))
			continue
		}
		transfer, ok := transfers.FindTransfer(candidate.Filename)
		if !ok {
			logger.Debug("transfer not listed yet", logging.String("file", candidate.BaseName()))
			continue
		}
		transferID = transfer.ID

		switch {
		case transfer.Completed():
			logger.Info("transfer complete",
				logging.String("file", candidate.BaseName()),
				logging.String("state", transfer.State),
			)
			return nil
		case transfer.Failed():
			return services.Wrap(
				services.ErrExternalTool, "downloader", "wait for transfer",
				fmt.Sprintf("Peer reported transfer state %q", transfer.State), nil)
		default:
			item.SetProgress("Downloading",
				fmt.Sprintf("Downloading %s (%s of %s)",
					candidate.BaseName(),
					humanize.Bytes(uint64(transfer.BytesTransferred)),
					humanize.Bytes(uint64(transfer.Size))),
				transfer.PercentComplete)
			d.persistProgress(ctx, item, logger)
		}
	}
}

// cancelTransfer asks slskd to stop a transfer this daemon will not collect,
// because it outlived the timeout or the daemon is shutting down. Best
// effort: the caller moves on either way.
func (d *Downloader) cancelTransfer(ctx context.Context, username, transferID string) {
	if transferID == "" {
		return
	}
	if err := d.client.CancelDownload(ctx, username, transferID, false); err != nil {
		d.logger.Warn("transfer cancel failed",
			logging.String("username", username),
			logging.String("transfer_id", transferID),
			logging.Error(err),
		)
	}
}

package queue

import (
	"database/sql"
	"errors"
	"time"
)

const itemColumns = "id, artist, title, album, year, duration_seconds, spotify_url, query, request_key, requester, status, metadata_json, results_json, candidate_json, verdict_json, downloaded_file, staged_file, final_file, error_message, created_at, updated_at, progress_stage, progress_percent, progress_message, retry_count, last_heartbeat, needs_review, review_reason"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id               int64
		artist           sql.NullString
		title            sql.NullString
		album            sql.NullString
		year             sql.NullString
		durationSeconds  sql.NullInt64
		spotifyURL       sql.NullString
		query            sql.NullString
		requestKey       sql.NullString
		requester        sql.NullString
		statusStr        string
		metadata         sql.NullString
		results          sql.NullString
		candidate        sql.NullString
		verdict          sql.NullString
		downloadedFile   sql.NullString
		stagedFile       sql.NullString
		finalFile        sql.NullString
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		retryCount       sql.NullInt64
		lastHeartbeatRaw sql.NullString
		needsReview      sql.NullInt64
		reviewReason     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&artist,
		&title,
		&album,
		&year,
		&durationSeconds,
		&spotifyURL,
		&query,
		&requestKey,
		&requester,
		&statusStr,
		&metadata,
		&results,
		&candidate,
		&verdict,
		&downloadedFile,
		&stagedFile,
		&finalFile,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&retryCount,
		&lastHeartbeatRaw,
		&needsReview,
		&reviewReason,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		Artist:          artist.String,
		Title:           title.String,
		Album:           album.String,
		Year:            year.String,
		DurationSeconds: int(durationSeconds.Int64),
		SpotifyURL:      spotifyURL.String,
		Query:           query.String,
		RequestKey:      requestKey.String,
		Requester:       requester.String,
		Status:          Status(statusStr),
		MetadataJSON:    metadata.String,
		ResultsJSON:     results.String,
		CandidateJSON:   candidate.String,
		VerdictJSON:     verdict.String,
		DownloadedFile:  downloadedFile.String,
		StagedFile:      stagedFile.String,
		FinalFile:       finalFile.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
		RetryCount:      int(retryCount.Int64),
	}
	if needsReview.Valid {
		item.NeedsReview = needsReview.Int64 != 0
	}
	item.ReviewReason = reviewReason.String

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			item.LastHeartbeat = &heartbeat
		}
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	v := value.UTC().Format(time.RFC3339Nano)
	return v
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

package record

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
)

var (
	ErrNotSummary         = goerr.New("message is not a coaching session summary")
	ErrUnsupportedVersion = goerr.New("unsupported memory record schema version")
)

var numberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// dateLayouts are tried in order; all dates are interpreted as UTC
var dateLayouts = []string{
	model.DateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"1/2/2006",
}

type section int

const (
	sectionNone section = iota
	sectionInsights
	sectionProgress
)

// Parse reconstructs a SessionRecord from a summary message. The Date line
// wins over the message timestamp; if neither yields a date, now (UTC) is
// used. An unparseable score is 0.
func Parse(msg model.ConversationMessage, now time.Time) (*model.SessionRecord, error) {
	if !IsSummary(msg.Text) {
		return nil, goerr.Wrap(ErrNotSummary, "failed to parse memory record", goerr.V("session_id", msg.SessionID))
	}

	rec := &model.SessionRecord{
		SessionID:     msg.SessionID,
		Date:          msg.Timestamp.UTC(),
		KeyInsights:   []string{},
		ProgressAreas: []string{},
	}
	if msg.Timestamp.IsZero() {
		rec.Date = now.UTC()
	}

	active := sectionNone
	scoreSeen := false

	for _, raw := range strings.Split(msg.Text, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case line == headerTranscript:
			return rec, nil

		case line == headerKeyInsights:
			active = sectionInsights

		case line == headerAnalysis:
			active = sectionProgress

		case strings.HasPrefix(line, keyVersion):
			version, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, keyVersion)))
			if err != nil || version > SchemaVersion {
				return nil, goerr.Wrap(ErrUnsupportedVersion, "failed to parse memory record",
					goerr.V("line", line), goerr.V("session_id", msg.SessionID))
			}

		case strings.HasPrefix(line, keySessionID):
			if id := strings.TrimSpace(strings.TrimPrefix(line, keySessionID)); id != "" {
				rec.SessionID = id
			}

		case strings.HasPrefix(line, keyDate):
			if date, ok := parseDate(strings.TrimPrefix(line, keyDate)); ok {
				rec.Date = date
			}

		case strings.HasPrefix(line, keyOverallScore):
			if !scoreSeen {
				rec.OverallScore = parseScore(strings.TrimPrefix(line, keyOverallScore))
				scoreSeen = true
			}

		case strings.HasPrefix(line, bulletPrefix):
			item := strings.TrimSpace(strings.TrimPrefix(line, bulletPrefix))
			if item == "" {
				continue
			}
			switch active {
			case sectionInsights:
				rec.KeyInsights = append(rec.KeyInsights, item)
			case sectionProgress:
				rec.ProgressAreas = append(rec.ProgressAreas, item)
			}
		}
	}

	return rec, nil
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseScore(value string) float64 {
	match := numberPattern.FindString(value)
	if match == "" {
		return 0
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0
	}
	return score
}

package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/stridefit/backend/internal/constant"
	"github.com/stridefit/backend/internal/model"
)

// Recommendation is presentation-only guidance; it is never applied
// automatically. Auto-resolution has its own decision table in the
// preservation service.
type Recommendation struct {
	Choice model.ResolutionChoice `json:"choice"`
	Reason string                 `json:"reason"`
}

const (
	reasonHighConfidenceSynced = "records describe the same activity and the synced copy has high confidence"
	reasonHighSimilarityManual = "records describe the same activity; the manual entry is kept as the user-authored copy"
	reasonDistinctActivities   = "records barely overlap and look like different activities"
	reasonMergeOverlapping     = "records overlap substantially but disagree on what happened; merging preserves both"
	reasonDefaultManual        = "manual entry kept as the user-authored record"
)

// Recommend applies the presentation heuristic from the conflict's scores.
func (r *Resolver) Recommend(conflict *model.Conflict) Recommendation {
	manual, synced := conflict.ManualRecord, conflict.SyncedRecord

	minDuration := manual.DurationMinutes
	if synced.DurationMinutes < minDuration {
		minDuration = synced.DurationMinutes
	}
	overlapPct := 0.0
	if minDuration > 0 {
		overlapPct = float64(conflict.OverlapMinutes) / float64(minDuration)
	}

	nameSim := nameSimilarity(manual.Name, synced.Name)
	durSim := durationSimilarity(manual.DurationMinutes, synced.DurationMinutes)
	confidence := synced.Confidence(constant.DefaultConfidence)

	switch {
	case nameSim >= 0.8 && durSim >= 0.8 && overlapPct >= 0.8:
		if confidence > 0.8 {
			return Recommendation{Choice: model.ChoiceKeepSynced, Reason: reasonHighConfidenceSynced}
		}
		return Recommendation{Choice: model.ChoiceKeepManual, Reason: reasonHighSimilarityManual}
	case overlapPct < 0.5 && nameSim < 0.5:
		return Recommendation{Choice: model.ChoiceKeepBoth, Reason: reasonDistinctActivities}
	case overlapPct > 0.5 && nameSim < 0.5:
		return Recommendation{Choice: model.ChoiceMerge, Reason: reasonMergeOverlapping}
	default:
		return Recommendation{Choice: model.ChoiceKeepManual, Reason: reasonDefaultManual}
	}
}

// RecordView is a display-formatted copy of a record, consumed by the UI
// layer; the core formats nothing else user-facing.
type RecordView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TimeLabel     string `json:"timeLabel"`
	DurationLabel string `json:"durationLabel"`
	SourceLabel   string `json:"sourceLabel"`
	PlatformLabel string `json:"platformLabel,omitempty"`
}

// TimelineSegment is one ordered, gap-free slice of the conflict window.
type TimelineSegment struct {
	Kind  string    `json:"kind"` // manual | synced | overlap
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

type ConflictPresentation struct {
	Manual         RecordView        `json:"manual"`
	Synced         RecordView        `json:"synced"`
	OverlapMinutes int               `json:"overlapMinutes"`
	Timeline       []TimelineSegment `json:"timeline"`
}

// Present builds the derived view of a conflict: formatted record copies and
// a decomposition of the joint time span into manual/synced/overlap segments.
func (r *Resolver) Present(conflict *model.Conflict) *ConflictPresentation {
	return &ConflictPresentation{
		Manual:         recordView(conflict.ManualRecord),
		Synced:         recordView(conflict.SyncedRecord),
		OverlapMinutes: conflict.OverlapMinutes,
		Timeline:       timeline(conflict.ManualRecord, conflict.SyncedRecord),
	}
}

func recordView(rec *model.ActivityRecord) RecordView {
	view := RecordView{
		ID:            rec.ID,
		Name:          rec.Name,
		TimeLabel:     fmt.Sprintf("%s – %s", rec.StartTime.Format("15:04"), rec.EndTime().Format("15:04")),
		DurationLabel: durationLabel(rec.DurationMinutes),
	}
	if rec.Origin == model.OriginManual {
		view.SourceLabel = "Manual entry"
	} else {
		view.SourceLabel = "Synced"
		if rec.Platform != nil {
			view.PlatformLabel = platformLabel(*rec.Platform)
		}
	}
	return view
}

func durationLabel(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%d h %02d min", minutes/60, minutes%60)
}

func platformLabel(p model.Platform) string {
	switch p {
	case model.PlatformAppleHealth:
		return "Apple Health"
	case model.PlatformGoogleFit:
		return "Google Fit"
	case model.PlatformFitbit:
		return "Fitbit"
	case model.PlatformGarmin:
		return "Garmin"
	default:
		return string(p)
	}
}

// timeline splits the union of both intervals at every boundary instant and
// tags each slice by which records cover it. Segments come out ordered and
// gap-free over the union span.
func timeline(manual, synced *model.ActivityRecord) []TimelineSegment {
	bounds := []time.Time{manual.StartTime, manual.EndTime(), synced.StartTime, synced.EndTime()}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i].Before(bounds[j]) })

	segments := []TimelineSegment{}
	for i := 0; i < len(bounds)-1; i++ {
		start, end := bounds[i], bounds[i+1]
		if !end.After(start) {
			continue
		}

		mid := start.Add(end.Sub(start) / 2)
		inManual := !mid.Before(manual.StartTime) && mid.Before(manual.EndTime())
		inSynced := !mid.Before(synced.StartTime) && mid.Before(synced.EndTime())

		var kind, label string
		switch {
		case inManual && inSynced:
			kind, label = "overlap", "Both records"
		case inManual:
			kind, label = "manual", manual.Name
		case inSynced:
			kind, label = "synced", synced.Name
		default:
			continue
		}

		// extend the previous segment instead of emitting an adjacent twin
		if n := len(segments); n > 0 && segments[n-1].Kind == kind && segments[n-1].End.Equal(start) {
			segments[n-1].End = end
			continue
		}

		segments = append(segments, TimelineSegment{Kind: kind, Start: start, End: end, Label: label})
	}

	return segments
}

package reminders

import "context"

// Cleanup resets reminder markers on appointments more than 30 days in the
// past, bounding marker lifetime so stale rows stop matching the candidate
// queries. Runs in the daily midnight slot.
func (j *Jobs) Cleanup(ctx context.Context) Result {
	start := j.now()
	result := Result{Job: "cleanup"}

	cutoff := j.now().UTC().Add(-markerRetention)
	reset, err := j.store.ResetStaleMarkers(ctx, cutoff)
	if err != nil {
		result.dataError("reset stale markers: %v", err)
		result.Duration = j.now().Sub(start)
		return result
	}

	result.Updated = int(reset)
	result.Duration = j.now().Sub(start)
	if reset > 0 {
		j.logger.Info("reset stale reminder markers", "count", reset)
	}
	return result
}

package chat

import "github.com/google/uuid"

// Cache invalidation tags. Mutating operations attach the tags their write
// affects; a single invalidation step consumes them.

// TagThreads covers the list-threads entries (both include_closed variants)
// for a farmer.
func TagThreads(farmerID uuid.UUID) string {
	return "threads:" + farmerID.String()
}

// TagOpportunities covers the opportunities-with-participants entry for a
// farmer.
func TagOpportunities(farmerID uuid.UUID) string {
	return "opportunities:" + farmerID.String()
}

// TagThreadDetail covers the thread-detail entry for one (thread, farmer)
// pair.
func TagThreadDetail(threadID, farmerID uuid.UUID) string {
	return "thread:" + threadID.String() + ":" + farmerID.String()
}

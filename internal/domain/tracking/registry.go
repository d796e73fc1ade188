package tracking

import "sort"

// registry holds the active entries keyed by Notion task id. It is not
// safe for concurrent use; the engine guards it.
type registry map[string]ActiveEntry

func (r registry) get(taskID string) (ActiveEntry, bool) {
	e, ok := r[taskID]
	return e, ok
}

func (r registry) put(e ActiveEntry) {
	r[e.TaskID] = e
}

func (r registry) remove(taskID string) {
	delete(r, taskID)
}

func (r registry) clear() {
	clear(r)
}

func (r registry) snapshot() []ActiveEntry {
	entries := make([]ActiveEntry, 0, len(r))
	for _, e := range r {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].TaskID < entries[j].TaskID })
	return entries
}

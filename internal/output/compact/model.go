package compact

type ItemLifecycle string

const (
	ItemLifecycleIdle        ItemLifecycle = "idle"
	ItemLifecyclePreparing   ItemLifecycle = "preparing"
	ItemLifecycleDownloading ItemLifecycle = "downloading"
	ItemLifecycleMerging     ItemLifecycle = "merging"
	ItemLifecycleConverting  ItemLifecycle = "converting"
	ItemLifecycleDone        ItemLifecycle = "done"
	ItemLifecycleSkipped     ItemLifecycle = "skipped"
	ItemLifecycleFailed      ItemLifecycle = "failed"
	ItemLifecycleCancelled   ItemLifecycle = "cancelled"
)

type ItemProgress struct {
	Identifier      string
	Title           string
	Lifecycle       ItemLifecycle
	ProgressPercent float64
	ProgressKnown   bool
	Speed           string
	ETA             string
	AlreadyPresent  bool
}

type RunProgress struct {
	Queued    int
	Completed int
	Failed    int
}

type ProgressModel struct {
	Item ItemProgress
	Run  RunProgress
}

// Label is the name shown for the item: its title once known, otherwise the
// identifier.
func (p ItemProgress) Label() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Identifier
}

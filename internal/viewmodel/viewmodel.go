package viewmodel

// LessonCard is one entry of the lesson list.
type LessonCard struct {
	ID          string
	Title       string
	Description string
	Mode        string
	Rounds      int
}

// HomePage holds data for the lesson list page.
type HomePage struct {
	Title   string
	Lessons []LessonCard
	Error   string
}

// Item is a draggable item on the board.
type Item struct {
	ID       string
	Payload  string
	Selected bool
}

// Target is a drop target with the items placed on it.
type Target struct {
	ID       string
	Label    string
	Capacity int
	Placed   []Item
	Full     bool
	Hovered  bool
}

// FeedbackBlocked marks a drop the target would take but that would leave
// another item with nowhere to go.
const FeedbackBlocked = "blocked"

// Board holds data for the board fragment.
type Board struct {
	SessionID   string
	Key         string
	Prompt      string
	RoundKind   string
	RoundStatus string
	RoundNumber int
	Rounds      int
	Items       []Item
	Targets     []Target
	Score       int
	Mistakes    int
	Arcade      bool
	Lives       int
	TargetScore int
	// Feedback is "correct", "incorrect" or "timedOut" once the round shows
	// its outcome, FeedbackBlocked after a refused placement, and empty
	// otherwise.
	Feedback string
	Locked   bool
	Complete bool
	Success  bool
	Countdown
}

// Countdown holds data for the countdown bar.
type Countdown struct {
	Timed    bool
	Seconds  int
	Fraction float64
}

// BoardPage holds data for the full session page.
type BoardPage struct {
	Title       string
	LessonTitle string
	SessionID   string
	Board       Board
}

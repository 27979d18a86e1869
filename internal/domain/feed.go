package domain

// TripView is the full aggregate a member sees when opening a trip:
// the header, every day, and the post feed with all nested children.
// It is assembled read-only by the feed service and never written back.
type TripView struct {
	Trip    Trip       `json:"trip"`
	Days    []TripDay  `json:"days"`
	Members []UserRef  `json:"members"`
	Posts   []PostView `json:"posts"`
}

// UserRef is the minimal author/member projection embedded in feed reads.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PostView is one feed post with its children resolved for display.
// Posts are ordered newest-first, comments oldest-first, images by sort
// order, crawl stops by sort order.
type PostView struct {
	Post      Post            `json:"post"`
	Author    UserRef         `json:"author"`
	Comments  []CommentView   `json:"comments"`
	Votes     VoteSummary     `json:"votes"`
	Images    []Image         `json:"images"`
	Challenges []Challenge    `json:"challenges"`
	Crawl     []CrawlStopView `json:"crawlLocations,omitempty"`
}

// CommentView pairs a comment with its author's display name.
type CommentView struct {
	Comment Comment `json:"comment"`
	Author  UserRef `json:"author"`
}

// CrawlStopView is one crawl stop with its own attachments resolved.
type CrawlStopView struct {
	Location   CrawlLocation `json:"location"`
	Images     []Image       `json:"images"`
	Challenges []Challenge   `json:"challenges"`
}

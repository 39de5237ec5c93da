package models

// DashboardStats summarizes the paper pipeline for the admin overview.
type DashboardStats struct {
	TotalTeams     int                 `json:"total_teams"`
	TotalPapers    int                 `json:"total_papers"`
	PapersByStatus map[PaperStatus]int `json:"papers_by_status"`
	PendingReviews int                 `json:"pending_reviews"`
}

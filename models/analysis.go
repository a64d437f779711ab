package models

// BusinessData identifies the business submitted for an AI visibility
// analysis.
type BusinessData struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required"`
	City     string `json:"city" binding:"required"`
}

// Competitor is one entry in the local-pack comparison table.
type Competitor struct {
	Name    string `json:"name"`
	Rating  string `json:"rating"`
	Reviews int    `json:"reviews"`
	Address string `json:"address,omitempty"`
	Status  string `json:"status,omitempty"`
}

// AnalysisResult is the visibility report shown behind the paywall.
type AnalysisResult struct {
	Score                int          `json:"score"`
	MonthlySearchVolume  int          `json:"monthly_search_volume"`
	EstimatedLostRevenue int          `json:"estimated_lost_revenue"`
	VisibilityRank       string       `json:"visibility_rank"`
	CompetitorsCount     int          `json:"competitors_count"`
	CompetitorsList      []Competitor `json:"competitors_list"`
	BusinessImage        string       `json:"business_image,omitempty"`
	WebsiteURL           string       `json:"website_url,omitempty"`
	TechScore            int          `json:"tech_score"`
	TechIssues           []string     `json:"tech_issues"`
}

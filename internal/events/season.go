package events

// SeasonCreated is emitted when a season group is created.
type SeasonCreated struct {
	BaseEvent
	GroupID       string `json:"group_id"`
	SeriesTitle   string `json:"series_title"`
	Season        int    `json:"season"`
	TotalEpisodes int    `json:"total_episodes"`
}

// SeasonUpdated is emitted when reconciliation changes a group's aggregate.
type SeasonUpdated struct {
	BaseEvent
	GroupID            string  `json:"group_id"`
	DownloadedEpisodes int     `json:"downloaded_episodes"`
	TotalEpisodes      int     `json:"total_episodes"`
	Progress           float64 `json:"progress"`
}

// SeasonRemoved is emitted when a season group and its episodes are deleted.
type SeasonRemoved struct {
	BaseEvent
	GroupID string `json:"group_id"`
}

// PowerChanged is emitted when low power mode is entered or left.
type PowerChanged struct {
	BaseEvent
	LowPower bool `json:"low_power"`
}

// NetworkChanged is emitted when network reachability flips.
type NetworkChanged struct {
	BaseEvent
	Available bool `json:"available"`
}

// AppStateChanged is emitted on foreground/background transitions.
type AppStateChanged struct {
	BaseEvent
	Background bool `json:"background"`
}

package domain

// Drift is one audited video
type Drift struct {
	VideoID   string
	Exists    bool
	LikeCount int64
	Members   int64
	Version   int64
}

// Delta is what likeCount is off by
func (d Drift) Delta() int64 { return d.Members - d.LikeCount }

// Report counts what one pass did
type Report struct {
	Skipped  bool
	Leased   int
	Shipped  int
	Audited  int
	Drifted  int
	Repaired int
}

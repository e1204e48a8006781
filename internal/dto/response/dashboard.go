package response

type UserStats struct {
	TotalAppointments     int64 `json:"totalAppointments"`
	UpcomingAppointments  int64 `json:"upcomingAppointments"`
	PendingAppointments   int64 `json:"pendingAppointments"`
	CompletedAppointments int64 `json:"completedAppointments"`
	CancelledAppointments int64 `json:"cancelledAppointments"`
}

type DashboardResponse struct {
	Stats              UserStats             `json:"stats"`
	RecentAppointments []AppointmentResponse `json:"recentAppointments"`
	NextAppointment    *AppointmentResponse  `json:"nextAppointment"`
}

type AdminStats struct {
	TotalAppointments     int64   `json:"totalAppointments"`
	PendingAppointments   int64   `json:"pendingAppointments"`
	ConfirmedAppointments int64   `json:"confirmedAppointments"`
	CompletedAppointments int64   `json:"completedAppointments"`
	CancelledAppointments int64   `json:"cancelledAppointments"`
	TotalRevenue          int64   `json:"totalRevenue"`
	TotalUsers            int64   `json:"totalUsers"`
	AverageRating         float64 `json:"averageRating"`
	ReviewCount           int64   `json:"reviewCount"`
}

type AdminStatsResponse struct {
	Stats AdminStats `json:"stats"`
}

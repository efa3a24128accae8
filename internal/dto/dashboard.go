package dto

// DashboardStats is the admin overview of school activity.
type DashboardStats struct {
	TotalStudents     int     `db:"total_students" json:"total_students"`
	TotalTeachers     int     `db:"total_teachers" json:"total_teachers"`
	TotalCourses      int     `db:"total_courses" json:"total_courses"`
	ActiveEnrollments int     `db:"active_enrollments" json:"active_enrollments"`
	RevenueThisMonth  float64 `db:"revenue_this_month" json:"revenue_this_month"`
}

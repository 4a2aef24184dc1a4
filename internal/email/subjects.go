package email

const (
	subjectDueSoonFmt  = "Maintenance coming up for %s"
	subjectOverdueFmt  = "Maintenance overdue for %s"
	subjectHighRiskFmt = "Attention needed: %s is at high risk"
)

package email

const (
	subjectLeadNoticeFmt          = "🔧 New Lead: %s - %s"
	subjectLeadNoticeEmergencyFmt = "🚨 EMERGENCY Lead: %s - %s"
)

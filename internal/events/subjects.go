package events

const (
	SubjectStats = "verdict.stats"

	StreamName   = "VERDICT_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectDecisionCreated(domain, decisionID string) string {
	return "verdict.decision." + domain + "." + decisionID + ".created"
}

func SubjectDecisionConfirmed(decisionID string) string {
	return "verdict.decision." + decisionID + ".confirmed"
}

func SubjectDecisionDismissed(decisionID string) string {
	return "verdict.decision." + decisionID + ".dismissed"
}

func SubjectDecisionExpired(decisionID string) string {
	return "verdict.decision." + decisionID + ".expired"
}

func SubjectFraudFlagged(subjectID string) string {
	return "verdict.fraud." + subjectID + ".flagged"
}

func SubjectDuplicateFlagged(adID string) string {
	return "verdict.duplicate." + adID + ".flagged"
}

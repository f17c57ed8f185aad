package reminders

// Milestone is a pregnancy-week care message.
type Milestone struct {
	Week     int
	Category string
	Message  string
}

// milestoneTable maps gestational weeks to care milestones. Weeks without an
// entry produce no message.
var milestoneTable = map[int]Milestone{
	4:  {4, "first-trimester", "Your pregnancy journey begins! Consider scheduling your first prenatal visit."},
	8:  {8, "first-trimester", "Week 8: your baby's heartbeat can often be detected now. Keep taking your prenatal vitamins."},
	12: {12, "first-trimester", "Week 12: end of the first trimester is near. A dating ultrasound is usually done around now."},
	16: {16, "second-trimester", "Week 16: you may start feeling the baby move in the coming weeks."},
	20: {20, "halfway", "Week 20: halfway there! This is the usual time for the anatomy scan ultrasound."},
	24: {24, "second-trimester", "Week 24: glucose screening for gestational diabetes is typically scheduled between now and week 28."},
	28: {28, "third-trimester", "Week 28: welcome to the third trimester. Visits usually move to every two weeks."},
	32: {32, "third-trimester", "Week 32: time to start thinking about your birth plan and hospital bag."},
	36: {36, "third-trimester", "Week 36: weekly visits usually begin now. Group B strep screening happens around this week."},
	40: {40, "due-date", "Week 40: you have reached your due date. Contact your provider about next steps."},
}

// MilestoneForWeek looks up the milestone for a gestational week.
func MilestoneForWeek(week int) (Milestone, bool) {
	m, ok := milestoneTable[week]
	return m, ok
}

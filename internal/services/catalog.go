package services

// Event is a symposium event a paid participant can register for.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Label       string `json:"label"`
}

// Workshop is a separately paid workshop.
type Workshop struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Mode        string `json:"mode"`
	Schedule    string `json:"schedule"`
	Fee         int64  `json:"fee"`
}

var events = []Event{
	{ID: "paper-presentation-1", Title: "Paper Presentation-UPSIRE", Description: "Present your research findings from the depths of the unknown.", Label: "001"},
	{ID: "paper-presentation-2", Title: "Paper Presentation-INQUISTA", Description: "Share discoveries that defy conventional understanding.", Label: "002"},
	{ID: "hackathon", Title: "Project Presentation", Description: "48 hours in the Upside Down. Build or be consumed by the void.", Label: "003"},
	{ID: "codeathon", Title: "Codeathon", Description: "Race against time in the shadow realm of algorithms.", Label: "004"},
	{ID: "bot-lf", Title: "BOT-PATHTRONIX", Description: "Line following automatons navigate the dark corridors.", Label: "005"},
	{ID: "bot-ba", Title: "BOT BATTLE ARENA", Description: "Battle arena where machines clash in supernatural combat.", Label: "006"},
	{ID: "design-event", Title: "DESIGN-PIXFROGE", Description: "Create visuals that transcend dimensions and reality.", Label: "007"},
	{ID: "quiz", Title: "Quiz", Description: "Test your knowledge of the mysteries that lurk beyond.", Label: "008"},
	{ID: "non-tech-1", Title: "Non Tech", Description: "Activities from another dimension, no tech required.", Label: "009"},
	{ID: "non-tech-2", Title: "NON TECH - EQUINOX", Description: "More supernatural challenges await the brave.", Label: "010"},
	{ID: "tech", Title: "TECH EVENT-AMPERON", Description: "Technical challenges that push the boundaries of reality.", Label: "011"},
	{ID: "flagship", Title: "FF ARENA", Description: "The ultimate event. Face the Demogorgon of all challenges.", Label: "012"},
}

var workshops = []Workshop{
	{ID: "W-01", Title: "LoRa Based IoT Application Development", Description: "Embedded systems, sensors and LoRa/LoRaWAN with hands-on IoT builds.", Mode: "Offline", Schedule: "07/02/2026 | 9:00 am - 5:00 pm", Fee: 500},
	{ID: "W-02", Title: "ModelCraft with MATLAB - Simulink for Industrial Applications", Description: "Model-based design, simulation and code generation for industrial systems.", Mode: "Offline", Schedule: "07/02/2026 | 9:00 am - 5:00 pm", Fee: 750},
	{ID: "W-03", Title: "CLASSIFIED WORKSHOP", Description: "This workshop file has been sealed by Hawkins National Laboratory.", Mode: "Offline", Schedule: "TBA", Fee: 1000},
}

// ListEvents returns the event catalog.
func ListEvents() []Event {
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// FindEvent looks an event up by id.
func FindEvent(id string) (Event, bool) {
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return Event{}, false
}

// ListWorkshops returns the workshop catalog.
func ListWorkshops() []Workshop {
	out := make([]Workshop, len(workshops))
	copy(out, workshops)
	return out
}

// FindWorkshop looks a workshop up by id.
func FindWorkshop(id string) (Workshop, bool) {
	for _, w := range workshops {
		if w.ID == id {
			return w, true
		}
	}
	return Workshop{}, false
}

package questions

// Topic représente un sujet de premier niveau du catalogue
type Topic struct {
	ID          int    `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Subtopic représente un sous-sujet rattaché à un topic
type Subtopic struct {
	ID          int    `json:"-"`
	TopicID     int    `json:"-"`
	Name        string `json:"name"`
	Topic       string `json:"topic"` // nom du topic parent
	Description string `json:"description"`
}

// Question représente une question du catalogue; le flag restricted
// réserve la question aux membres privilégiés et au staff
type Question struct {
	ID         int      `json:"id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Restricted bool     `json:"restricted"`
	Subtopic   Subtopic `json:"subtopic"`
}

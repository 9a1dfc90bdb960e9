package assistant

// Intent names the response strategy chosen for an utterance.
type Intent string

const (
	IntentShowMedicines  Intent = "show_medicines"
	IntentRecordMedicine Intent = "record_medicine"
	IntentMedicineInfo   Intent = "medicine_info"
	IntentAppointment    Intent = "appointment"
	IntentFever          Intent = "fever"
	IntentCough          Intent = "cough"
	IntentEmergency      Intent = "emergency"
	IntentHealth         Intent = "health"
	IntentOintment       Intent = "ointment"
	IntentGreeting       Intent = "greeting"
	IntentThanks         Intent = "thanks"
	IntentKeyword        Intent = "keyword"
	IntentFallback       Intent = "fallback"
)

// salutationPlaceholder is replaced with "Good Morning" etc. at reply time.
const salutationPlaceholder = "{salutation}"

// TopicRule maps a keyword set to a static reply.
type TopicRule struct {
	Intent   Intent
	Keywords []string
	Response string
}

// KeywordResponse is one entry of the fallback dictionary.
type KeywordResponse struct {
	Keyword  string
	Response string
}

// Table is the keyword and template configuration of a Matcher. A Matcher
// copies the table it is built from, so later edits to a Table value never
// leak into a running matcher.
type Table struct {
	ShowMedicinesPhrases   []string
	EmptyMedicinesResponse string

	RecordKeywords []string
	MedicineNouns  []string

	MedicineTopic TopicRule
	Appointment   TopicRule
	// Topics are tested in order after the appointment rule.
	Topics []TopicRule
	// Dictionary is tested in order after Topics; first key present wins.
	Dictionary []KeywordResponse

	// FallbackResponse takes the normalized utterance as its only %s verb.
	FallbackResponse string
	// WelcomeResponse opens a chat session.
	WelcomeResponse string
}

func (t Table) clone() Table {
	out := t
	out.ShowMedicinesPhrases = cloneStrings(t.ShowMedicinesPhrases)
	out.RecordKeywords = cloneStrings(t.RecordKeywords)
	out.MedicineNouns = cloneStrings(t.MedicineNouns)
	out.MedicineTopic = t.MedicineTopic.clone()
	out.Appointment = t.Appointment.clone()
	out.Topics = make([]TopicRule, len(t.Topics))
	for i, topic := range t.Topics {
		out.Topics[i] = topic.clone()
	}
	out.Dictionary = append([]KeywordResponse(nil), t.Dictionary...)
	return out
}

func (r TopicRule) clone() TopicRule {
	r.Keywords = cloneStrings(r.Keywords)
	return r
}

func cloneStrings(in []string) []string {
	return append([]string(nil), in...)
}

// DefaultTable returns the stock healthcare assistant configuration. Every
// call returns an independent value.
func DefaultTable() Table {
	return Table{
		ShowMedicinesPhrases: []string{"show my medicines", "list medicines", "my medicines", "recorded medicines"},
		EmptyMedicinesResponse: "📋 You haven't recorded any medicines yet.\n\n" +
			"To record a medicine, just tell me:\n" +
			"• \"Record [medicine name]\"\n" +
			"• \"Add [medicine name]\"\n" +
			"• \"I'm taking [medicine name]\"\n\n" +
			"Example: \"Record Paracetamol 500mg twice daily\"",

		RecordKeywords: []string{"record", "add", "save", "taking", "i take", "i'm taking", "prescribed"},
		MedicineNouns:  []string{"medicine", "medication", "pill", "tablet"},

		MedicineTopic: TopicRule{
			Intent:   IntentMedicineInfo,
			Keywords: []string{"medicine", "medication", "drug"},
			Response: "I can help you with medicine information! 💊\n\n" +
				"You can:\n" +
				"• Book medicine appointments through the Medicine Booking page\n" +
				"• Record medicines you're taking (just say \"Record [medicine name]\")\n" +
				"• Ask about specific medicines\n" +
				"• Get dosage information\n" +
				"• Learn about side effects\n\n" +
				"Would you like to book a medicine appointment or record a medicine?",
		},
		Appointment: TopicRule{
			Intent:   IntentAppointment,
			Keywords: []string{"appointment", "book", "schedule"},
			Response: "Great! I can help you book an appointment! 📅\n\n" +
				"We have two types of bookings:\n\n" +
				"1. **Medicine Booking** - For ointments and medications\n" +
				"2. **Appointment Booking** - For health issues like fever, cough, etc.\n\n" +
				"Which type of appointment would you like to book?",
		},
		Topics: []TopicRule{
			{
				Intent:   IntentFever,
				Keywords: []string{"fever", "temperature"},
				Response: "Fever Information 🌡️\n\n" +
					"Fever is usually a sign that your body is fighting an infection. Here's what you should know:\n\n" +
					"• Normal body temperature: 98.6°F (37°C)\n" +
					"• Mild fever: 99-100.4°F\n" +
					"• Moderate fever: 100.4-102.2°F\n" +
					"• High fever: Above 102.2°F\n\n" +
					"**When to see a doctor:**\n" +
					"• Fever above 103°F\n" +
					"• Fever lasting more than 3 days\n" +
					"• Severe headache or rash\n" +
					"• Difficulty breathing\n\n" +
					"Would you like to book an appointment for fever treatment?",
			},
			{
				Intent:   IntentCough,
				Keywords: []string{"cough"},
				Response: "Cough Information 🤧\n\n" +
					"Coughs can be caused by various factors:\n\n" +
					"**Types:**\n" +
					"• Dry cough (no mucus)\n" +
					"• Wet cough (with phlegm)\n" +
					"• Chronic cough (lasting 8+ weeks)\n\n" +
					"**Common causes:**\n" +
					"• Cold or flu\n" +
					"• Allergies\n" +
					"• Asthma\n" +
					"• Acid reflux\n\n" +
					"**When to see a doctor:**\n" +
					"• Cough lasting more than 3 weeks\n" +
					"• Blood in cough\n" +
					"• Difficulty breathing\n" +
					"• Chest pain\n\n" +
					"Would you like to book an appointment for cough treatment?",
			},
			{
				Intent:   IntentEmergency,
				Keywords: []string{"emergency", "urgent", "help"},
				Response: "🚨 **EMERGENCY ALERT**\n\n" +
					"If you're experiencing a life-threatening emergency, please:\n\n" +
					"1. Call emergency services immediately (911, 112, etc.)\n" +
					"2. Use the Emergency Alert button in the navigation\n" +
					"3. Go to the nearest emergency room\n\n" +
					"**Signs of emergency:**\n" +
					"• Chest pain\n" +
					"• Difficulty breathing\n" +
					"• Severe allergic reaction\n" +
					"• Unconsciousness\n" +
					"• Severe bleeding\n\n" +
					"I can help you send an emergency alert through the app. Would you like me to guide you?",
			},
			{
				Intent:   IntentHealth,
				Keywords: []string{"health", "symptom", "pain"},
				Response: "I'm here to help with your health questions! 🏥\n\n" +
					"However, I'm an AI assistant and cannot replace professional medical advice. For:\n\n" +
					"• **Serious symptoms** - Please consult a doctor immediately\n" +
					"• **Persistent issues** - Book an appointment\n" +
					"• **General questions** - I can provide information\n\n" +
					"What specific health concern would you like to discuss?",
			},
			{
				Intent:   IntentOintment,
				Keywords: []string{"ointment", "cream", "topical"},
				Response: "Ointment Information 💊\n\n" +
					"We offer various types of ointments:\n\n" +
					"• **Antibiotic Ointments** - For bacterial infections\n" +
					"• **Antifungal Ointments** - For fungal infections\n" +
					"• **Steroid Ointments** - For inflammation\n" +
					"• **Moisturizing Ointments** - For dry skin\n" +
					"• **Other Specialized Ointments**\n\n" +
					"You can book an ointment appointment through the Medicine Booking page. Would you like to book one?",
			},
			{
				Intent:   IntentGreeting,
				Keywords: []string{"hello", "hi", "hey"},
				Response: "Hello! 👋 " + salutationPlaceholder + "! How can I assist you with your healthcare needs today?",
			},
			{
				Intent:   IntentThanks,
				Keywords: []string{"thank", "thanks"},
				Response: "You're welcome! 😊 I'm always here to help. Is there anything else you'd like to know about your healthcare?",
			},
		},
		Dictionary: []KeywordResponse{
			{"headache", "Headaches can have various causes. If severe or persistent, please consult a doctor. Would you like to book an appointment?"},
			{"stomach", "Stomach issues can range from mild to serious. If you experience severe pain, vomiting, or it persists, please see a doctor."},
			{"cold", "Common cold symptoms usually resolve in 7-10 days. Rest, fluids, and over-the-counter medications can help. If symptoms worsen, see a doctor."},
			{"allergy", "Allergies can cause various symptoms. If you experience severe reactions like difficulty breathing, seek immediate medical attention."},
			{"sleep", "Sleep issues can affect your health. Maintaining a regular sleep schedule and good sleep hygiene helps. For persistent issues, consult a doctor."},
			{"diet", "A balanced diet is important for health. Include fruits, vegetables, whole grains, and stay hydrated. For specific dietary needs, consult a nutritionist."},
			{"exercise", "Regular exercise is beneficial for health. Start slowly and gradually increase intensity. If you have health conditions, consult a doctor first."},
			{"vaccine", "Vaccines are important for preventing diseases. Consult with your healthcare provider about recommended vaccinations."},
			{"blood pressure", "Blood pressure should be monitored regularly. Normal range is typically 120/80 mmHg. For concerns, consult a doctor."},
			{"diabetes", "Diabetes requires proper management through diet, exercise, and medication. Regular monitoring and doctor visits are essential."},
			{"covid", "For COVID-19 concerns, follow local health guidelines, get vaccinated, and consult healthcare providers for symptoms."},
			{"pregnancy", "Pregnancy requires regular prenatal care. Consult with an obstetrician for proper guidance and monitoring."},
			{"child", "Children's health needs special attention. For any concerns about your child's health, consult a pediatrician."},
			{"elderly", "Elderly care requires regular health checkups and monitoring. Ensure proper medication management and regular doctor visits."},
		},

		FallbackResponse: "I understand you're asking about \"%s\". As your healthcare assistant, I can help you with:\n\n" +
			"• Booking appointments (Medicine or General)\n" +
			"• Health information\n" +
			"• Emergency guidance\n" +
			"• Medicine queries\n\n" +
			"Could you provide more details about what you need? Or would you like me to help you book an appointment?",
		WelcomeResponse: salutationPlaceholder + "! 👋 I'm your Healthcare AI Assistant. How can I help you today? I can assist with:\n\n" +
			"• Booking appointments (Medicine & General)\n" +
			"• Recording medicines you're taking\n" +
			"• Medicine information & dosage\n" +
			"• Health questions & symptoms\n" +
			"• Emergency guidance\n" +
			"• General healthcare advice\n\n" +
			"Try saying \"Record [medicine name]\" to track your medications!",
	}
}

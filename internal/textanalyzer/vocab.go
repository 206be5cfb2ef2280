package textanalyzer

// Vocabulary holds the language-specific term lists the analyzer consults.
// The instantiator owns these so the business vocabulary can be swapped
// without touching the analysis logic.
type Vocabulary struct {
	StopWords          []string
	InterrogativeWords []string
	QuestionPatterns   []string // matched as substrings against the raw text
	PriceWords         []string
	TimeWords          []string
	LocationWords      []string
	HowToWords         []string
	WhyWords           []string
}

// DefaultVocabulary returns the built-in Thai/English vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		StopWords: []string{
			"ครับ", "ค่ะ", "คะ", "จ้า", "จ้ะ", "นะ", "น่ะ", "หน่อย", "ด้วย",
			"ที่", "ของ", "และ", "หรือ", "แล้ว", "ก็", "ได้", "ให้", "ไป", "มา",
			"เป็น", "คือ", "อยู่", "นี้", "นั้น", "ว่า", "จะ", "ไม่", "มี", "การ",
			"the", "a", "an", "is", "are", "was", "were", "to", "of", "and",
			"or", "in", "on", "at", "for", "with", "i", "you", "it", "this",
			"that", "my", "me", "we", "please",
		},
		InterrogativeWords: []string{
			"อะไร", "ที่ไหน", "เมื่อไหร่", "เมื่อไร", "ทำไม", "อย่างไร", "ยังไง",
			"เท่าไหร่", "เท่าไร", "กี่", "ใคร", "ไหม", "มั้ย", "หรือเปล่า", "หรือยัง",
			"what", "where", "when", "why", "how", "who", "which", "can", "could",
			"do", "does", "is there", "are there",
		},
		QuestionPatterns: []string{
			"อยากทราบ", "อยากรู้", "ขอถาม", "สอบถาม", "ขอข้อมูล", "รบกวนถาม",
			"ช่วยบอก", "บอกหน่อย", "i want to know", "tell me", "how much",
			"how many", "how long",
		},
		PriceWords: []string{
			"ราคา", "กี่บาท", "เท่าไหร่", "เท่าไร", "ค่าใช้จ่าย", "ค่าบริการ",
			"ค่าเรียน", "ค่าสมัคร", "โปรโมชั่น", "ส่วนลด", "price", "cost", "fee",
			"how much", "discount",
		},
		TimeWords: []string{
			"เมื่อไหร่", "เมื่อไร", "กี่โมง", "เวลา", "วันไหน", "วันที่", "กี่วัน",
			"เปิดกี่โมง", "ปิดกี่โมง", "ตาราง", "when", "time", "schedule", "date",
			"open", "close",
		},
		LocationWords: []string{
			"ที่ไหน", "ที่อยู่", "แผนที่", "เดินทาง", "สาขา", "ตั้งอยู่", "ใกล้",
			"where", "location", "address", "map", "branch",
		},
		HowToWords: []string{
			"อย่างไร", "ยังไง", "วิธี", "ขั้นตอน", "ทำไง", "สมัครยังไง", "how to",
			"how do", "step", "procedure",
		},
		WhyWords: []string{
			"ทำไม", "เพราะอะไร", "สาเหตุ", "why", "reason",
		},
	}
}

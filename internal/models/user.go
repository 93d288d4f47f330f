package models

import "time"

// VoiceLanguage is a supported spoken language for voice recordings.
// The transcription service translates all of them to English.
type VoiceLanguage string

// Supported voice languages. Recordings in any of these are normalized
// to English before extraction.
const (
	LangEnglish    VoiceLanguage = "en"
	LangSpanish    VoiceLanguage = "es"
	LangFrench     VoiceLanguage = "fr"
	LangGerman     VoiceLanguage = "de"
	LangItalian    VoiceLanguage = "it"
	LangPortuguese VoiceLanguage = "pt"
	LangChinese    VoiceLanguage = "zh"
	LangJapanese   VoiceLanguage = "ja"
	LangKorean     VoiceLanguage = "ko"
	LangHindi      VoiceLanguage = "hi"
	LangArabic     VoiceLanguage = "ar"
	LangRussian    VoiceLanguage = "ru"
)

// SupportedVoiceLanguages lists all valid VoiceLanguage values.
var SupportedVoiceLanguages = []VoiceLanguage{
	LangEnglish, LangSpanish, LangFrench, LangGerman, LangItalian,
	LangPortuguese, LangChinese, LangJapanese, LangKorean, LangHindi,
	LangArabic, LangRussian,
}

// IsValid reports whether l is a supported voice language.
func (l VoiceLanguage) IsValid() bool {
	for _, s := range SupportedVoiceLanguages {
		if l == s {
			return true
		}
	}
	return false
}

// User represents the user model in the database
type User struct {
	Base
	Email            string        `gorm:"uniqueIndex;not null" json:"email"`
	Password         string        `gorm:"not null" json:"-"`
	FirstName        string        `json:"first_name"`
	LastName         string        `json:"last_name"`
	Currency         string        `gorm:"size:3;default:USD" json:"currency"`
	VoiceLanguage    VoiceLanguage `gorm:"size:2;default:en" json:"voice_language"`
	IsActive         bool          `gorm:"default:true" json:"is_active"`
	RefreshTokenHash string        `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time    `json:"last_login_at,omitempty"`

	Categories   []Category    `gorm:"foreignKey:UserID" json:"categories,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}

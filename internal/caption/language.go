package caption

import (
	"strings"

	"videotranscriber/internal/model"
)

const autoSuffix = " (auto)"

// languageNames maps caption language codes to English names. Read-only.
var languageNames = map[string]string{
	"ab": "Abkhazian", "aa": "Afar", "af": "Afrikaans", "ak": "Akan", "sq": "Albanian",
	"am": "Amharic", "ar": "Arabic", "hy": "Armenian", "as": "Assamese", "ay": "Aymara",
	"az": "Azerbaijani", "bn": "Bangla", "ba": "Bashkir", "eu": "Basque", "be": "Belarusian",
	"bho": "Bhojpuri", "bs": "Bosnian", "br": "Breton", "bg": "Bulgarian", "my": "Burmese",
	"ca": "Catalan", "ceb": "Cebuano", "zh": "Chinese",
	"zh-Hans": "Chinese (Simplified)", "zh-Hant": "Chinese (Traditional)",
	"zh-CN": "Chinese (Simplified)", "zh-TW": "Chinese (Traditional)", "zh-HK": "Chinese (Hong Kong)",
	"co": "Corsican", "hr": "Croatian", "cs": "Czech", "da": "Danish", "dv": "Divehi",
	"nl": "Dutch", "dz": "Dzongkha", "en": "English",
	"en-US": "English (US)", "en-GB": "English (UK)", "en-AU": "English (Australia)",
	"en-CA": "English (Canada)", "en-IN": "English (India)",
	"eo": "Esperanto", "et": "Estonian", "ee": "Ewe", "fo": "Faroese", "fj": "Fijian",
	"fil": "Filipino", "fi": "Finnish", "fr": "French",
	"fr-FR": "French (France)", "fr-CA": "French (Canada)", "fr-BE": "French (Belgium)",
	"gl": "Galician", "ka": "Georgian", "de": "German",
	"de-DE": "German (Germany)", "de-AT": "German (Austria)", "de-CH": "German (Switzerland)",
	"el": "Greek", "gn": "Guarani", "gu": "Gujarati", "ht": "Haitian Creole",
	"ha": "Hausa", "haw": "Hawaiian", "iw": "Hebrew", "he": "Hebrew", "hi": "Hindi",
	"hmn": "Hmong", "hu": "Hungarian", "is": "Icelandic", "ig": "Igbo", "id": "Indonesian",
	"ia": "Interlingua", "ga": "Irish", "it": "Italian", "ja": "Japanese", "jv": "Javanese",
	"kn": "Kannada", "kk": "Kazakh", "km": "Khmer", "rw": "Kinyarwanda", "ko": "Korean",
	"ku": "Kurdish", "ky": "Kyrgyz", "lo": "Lao", "la": "Latin", "lv": "Latvian",
	"ln": "Lingala", "lt": "Lithuanian", "lg": "Luganda", "lb": "Luxembourgish",
	"mk": "Macedonian", "mg": "Malagasy", "ms": "Malay", "ml": "Malayalam", "mt": "Maltese",
	"mi": "Maori", "mr": "Marathi", "mn": "Mongolian", "ne": "Nepali", "no": "Norwegian",
	"nb": "Norwegian Bokmal", "nn": "Norwegian Nynorsk", "ny": "Nyanja", "oc": "Occitan",
	"or": "Odia", "om": "Oromo", "ps": "Pashto", "fa": "Persian", "pl": "Polish",
	"pt": "Portuguese", "pt-BR": "Portuguese (Brazil)", "pt-PT": "Portuguese (Portugal)",
	"pa": "Punjabi", "qu": "Quechua", "ro": "Romanian", "rm": "Romansh", "ru": "Russian",
	"sm": "Samoan", "sg": "Sango", "sa": "Sanskrit", "gd": "Scottish Gaelic", "sr": "Serbian",
	"sn": "Shona", "sd": "Sindhi", "si": "Sinhala", "sk": "Slovak", "sl": "Slovenian",
	"so": "Somali", "st": "Southern Sotho", "es": "Spanish",
	"es-419": "Spanish (Latin America)", "es-ES": "Spanish (Spain)",
	"es-MX": "Spanish (Mexico)", "es-US": "Spanish (US)",
	"su": "Sundanese", "sw": "Swahili", "sv": "Swedish", "tg": "Tajik", "ta": "Tamil",
	"tt": "Tatar", "te": "Telugu", "th": "Thai", "ti": "Tigrinya", "ts": "Tsonga",
	"tr": "Turkish", "tk": "Turkmen", "uk": "Ukrainian", "ur": "Urdu", "ug": "Uyghur",
	"uz": "Uzbek", "vi": "Vietnamese", "cy": "Welsh", "fy": "Western Frisian",
	"xh": "Xhosa", "yi": "Yiddish", "yo": "Yoruba", "zu": "Zulu",
}

// LanguageName returns a display name for code. A region-qualified code that
// is not listed falls back to its base name with the region in parentheses;
// anything else is returned unchanged.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	base, region, found := strings.Cut(code, "-")
	if found {
		if name, ok := languageNames[base]; ok {
			return name + " (" + region + ")"
		}
	}
	return code
}

// Tracks lists manual tracks first, then automatic tracks whose code has no
// manual counterpart. Input order is preserved within each group.
func Tracks(manual, automatic []string) []model.LanguageTrack {
	tracks := make([]model.LanguageTrack, 0, len(manual)+len(automatic))
	seen := make(map[string]bool, len(manual))
	for _, code := range manual {
		if seen[code] {
			continue
		}
		seen[code] = true
		tracks = append(tracks, model.LanguageTrack{Code: code, Name: LanguageName(code)})
	}
	for _, code := range automatic {
		if seen[code] {
			continue
		}
		seen[code] = true
		tracks = append(tracks, model.LanguageTrack{Code: code, Name: LanguageName(code) + autoSuffix, IsAuto: true})
	}
	return tracks
}

package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			return "型が不正です"
		case "required":
			return "必須プロパティが不足しています"
		case "unknown_key":
			return "未知のキーです"
		case "duplicate_key":
			return "キーが重複しています"
		case "too_small":
			return "値が小さすぎます"
		case "too_big":
			return "値が大きすぎます"
		case "too_short":
			return "短すぎます"
		case "too_long":
			return "長すぎます"
		case "pattern":
			return "パターンに一致しません"
		case "invalid_enum":
			return "許可された値ではありません"
		case "invalid_format":
			return "フォーマットが不正です"
		case "union_mismatch":
			return "いずれの分岐にも一致しません"
		case "parse_error":
			return "解析エラー"
		case "invalid_identifier":
			return "識別子の形式が不正です"
		case "unresolved_reference":
			return "参照先のエンティティが見つかりません"
		case "xref_pattern_malformed":
			return "x-gts-ref のパターンが不正です"
		case "xref_violation":
			return "x-gts-ref の参照先型と一致しません"
		case "cast_incompatible":
			return "対象スキーマへの変換に失敗しました"
		case "cycle_detected":
			return "循環参照を検出しました"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			return "invalid type"
		case "required":
			return "required property missing"
		case "unknown_key":
			return "unknown key"
		case "duplicate_key":
			return "duplicate key"
		case "too_small":
			return "value too small"
		case "too_big":
			return "value too big"
		case "too_short":
			return "too short"
		case "too_long":
			return "too long"
		case "pattern":
			return "does not match pattern"
		case "invalid_enum":
			return "not one of the allowed values"
		case "invalid_format":
			return "invalid format"
		case "union_mismatch":
			return "does not match any branch"
		case "parse_error":
			return "parse error"
		case "invalid_identifier":
			return "malformed gts identifier"
		case "unresolved_reference":
			return "referenced entity not found in registry"
		case "xref_pattern_malformed":
			return "malformed x-gts-ref pattern"
		case "xref_violation":
			return "value does not resolve to a type matching x-gts-ref"
		case "cast_incompatible":
			return "value cannot be cast to the target schema"
		case "cycle_detected":
			return "relationship graph contains a cycle"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }

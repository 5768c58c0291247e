package rest

import "encoding/json"

// genericMessage — запасное сообщение, когда тело ошибки не разобрать.
const genericMessage = "operation failed"

// errorBody — формы тела ошибки, которые отдаёт бэкенд.
// Django REST Framework использует detail; часть эндпоинтов — error;
// ошибки валидации без привязки к полю — non_field_errors.
type errorBody struct {
	Detail         string   `json:"detail"`
	Error          string   `json:"error"`
	NonFieldErrors []string `json:"non_field_errors"`
}

// ErrorMessage извлекает человекочитаемое сообщение из тела ошибки бэкенда.
// Единственное место, которое знает формы тела ошибки; при неразборчивом
// теле возвращает общий текст.
func ErrorMessage(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return genericMessage
	}

	switch {
	case parsed.Detail != "":
		return parsed.Detail
	case parsed.Error != "":
		return parsed.Error
	case len(parsed.NonFieldErrors) > 0:
		return parsed.NonFieldErrors[0]
	default:
		return genericMessage
	}
}

package dto

import (
	"bytes"
	"encoding/json"
)

// FormValue accepts a JSON string or number and keeps its text.
type FormValue string

func (v *FormValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = FormValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = FormValue(n.String())
	return nil
}

type ProductRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Price       FormValue            `json:"price"`
	SubCategory string               `json:"subCategory"`
	Gender      string               `json:"gender"`
	Brand       string               `json:"brand"`
	Weight      FormValue            `json:"weight"`
	Material    string               `json:"material"`
	Images      []string             `json:"images"`
	Stock       FormValue            `json:"stock"`
	Inventory   map[string]FormValue `json:"inventory"`
}

type ProductCreatedResponse struct {
	UID string `json:"uid"`
}

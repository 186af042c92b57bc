package domain

import "fmt"

// MainItemID is the id assigned to the primary garment of an analysis
const MainItemID = "main"

// Categories are the garment categories the classifier is prompted with
var Categories = []string{"Tops", "Bottoms", "Accessories", "Outerwear", "Footwear"}

// FashionItem is the structured description of one detected clothing piece
type FashionItem struct {
	ID       string `json:"id"`
	Category string `json:"category" binding:"required"`
	Title    string `json:"title"`
	Color    string `json:"color"`
	Material string `json:"material"`
	Query    string `json:"query"`
	Image    string `json:"image,omitempty"`
}

// AnalysisResult is the garment decomposition of one photo
type AnalysisResult struct {
	MainItem      FashionItem   `json:"mainItem"`
	DetectedItems []FashionItem `json:"detectedItems"`
}

// Items returns the main item followed by the detected items
func (a *AnalysisResult) Items() []FashionItem {
	items := make([]FashionItem, 0, len(a.DetectedItems)+1)
	items = append(items, a.MainItem)
	items = append(items, a.DetectedItems...)
	return items
}

// FindItem looks up an item by id
func (a *AnalysisResult) FindItem(id string) (FashionItem, bool) {
	for _, item := range a.Items() {
		if item.ID == id {
			return item, true
		}
	}
	return FashionItem{}, false
}

// DetectedItemID returns the id for the detected item at index (0-based)
func DetectedItemID(index int) string {
	return fmt.Sprintf("det-%d", index)
}

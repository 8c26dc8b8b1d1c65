package mealplans

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/fdg312/fitness-hub/internal/nutrition"
	"github.com/fdg312/fitness-hub/internal/shopping"
	"github.com/fdg312/fitness-hub/internal/storage"
	"github.com/jung-kurt/gofpdf"
)

const pdfFont = "Arial"

// renderPDF draws the plan day by day followed by the categorized shopping list.
// Macros are rounded only here.
func renderPDF(plan storage.MealPlan) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(plan.Title), false)
	pdf.SetCreator("Fitness Hub", false)

	pdf.AddPage()

	// Title
	pdf.SetFont(pdfFont, "B", 16)
	pdf.Cell(0, 10, tr(plan.Title))
	pdf.Ln(8)

	pdf.SetFont(pdfFont, "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("%s - %s", plan.StartDate.Format("Mon, Jan 2 2006"), plan.EndDate.Format("Mon, Jan 2 2006")))
	pdf.Ln(12)

	drawMeals(pdf, tr, plan)
	drawShoppingList(pdf, tr, plan.ShoppingList)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawMeals(pdf *gofpdf.Fpdf, tr func(string) string, plan storage.MealPlan) {
	byDay := make(map[int][]storage.PlannedMeal)
	for _, m := range plan.Meals {
		byDay[m.DayIndex] = append(byDay[m.DayIndex], m)
	}

	days := make([]int, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Ints(days)

	for _, day := range days {
		meals := byDay[day]
		sort.SliceStable(meals, func(i, j int) bool {
			return slotOrder[meals[i].Slot] < slotOrder[meals[j].Slot]
		})

		pdf.SetFont(pdfFont, "B", 13)
		pdf.Cell(0, 8, plan.StartDate.AddDate(0, 0, day).Format("Monday, Jan 2"))
		pdf.Ln(8)

		pdf.SetFont(pdfFont, "B", 9)
		pdf.CellFormat(25, 6, "Slot", "1", 0, "C", false, 0, "")
		pdf.CellFormat(85, 6, "Meal", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "kcal", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Protein", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Carbs", "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, "Fat", "1", 1, "C", false, 0, "")

		pdf.SetFont(pdfFont, "", 9)
		var total nutrition.Macros
		for _, m := range meals {
			macros := nutrition.Macros(m.Macros)
			total = total.Add(macros)
			r := macros.Rounded()
			pdf.CellFormat(25, 6, m.Slot, "1", 0, "L", false, 0, "")
			pdf.CellFormat(85, 6, tr(truncate(m.Title, 48)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(20, 6, fmt.Sprintf("%d", r.Calories), "1", 0, "R", false, 0, "")
			pdf.CellFormat(20, 6, fmt.Sprintf("%d g", r.Protein), "1", 0, "R", false, 0, "")
			pdf.CellFormat(20, 6, fmt.Sprintf("%d g", r.Carbs), "1", 0, "R", false, 0, "")
			pdf.CellFormat(20, 6, fmt.Sprintf("%d g", r.Fat), "1", 1, "R", false, 0, "")
		}

		r := total.Rounded()
		pdf.SetFont(pdfFont, "B", 9)
		pdf.CellFormat(110, 6, "Total", "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", r.Calories), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d g", r.Protein), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d g", r.Carbs), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d g", r.Fat), "1", 1, "R", false, 0, "")
		pdf.Ln(6)
	}
}

func drawShoppingList(pdf *gofpdf.Fpdf, tr func(string) string, items []storage.ShoppingItem) {
	if len(items) == 0 {
		return
	}

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 14)
	pdf.Cell(0, 8, "Shopping list")
	pdf.Ln(10)

	for _, section := range shopping.Sections(shoppingItems(items)) {
		pdf.SetFont(pdfFont, "B", 11)
		pdf.Cell(0, 7, tr(section.Category))
		pdf.Ln(7)

		pdf.SetFont(pdfFont, "", 10)
		for _, item := range section.Items {
			pdf.CellFormat(8, 6, "[ ]", "", 0, "L", false, 0, "")
			pdf.CellFormat(110, 6, tr(item.Name), "", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, tr(item.Amount), "", 1, "R", false, 0, "")
		}
		pdf.Ln(3)
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}

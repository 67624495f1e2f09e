// Package pdf renders financial report models as printable documents.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
)

const dateLayout = "02/01/2006"

// Render produces the final report document for a project. The layout is
// the studio's standard: header with contact block, project info, financial
// summary, statistics, then one table per category in first-seen order.
func Render(model *core.ReportModel) ([]byte, error) {
	if model == nil {
		return nil, fmt.Errorf("render report: %w", core.ErrInvalidInput)
	}

	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetHeaderFunc(func() {
		doc.SetFont("Arial", "B", 20)
		doc.SetTextColor(0, 0, 0)
		doc.CellFormat(0, 15, tr("RELATÓRIO FINAL DE OBRA"), "", 1, "C", false, 0, "")
		doc.SetFont("Arial", "I", 9)
		doc.CellFormat(0, 6, "Ybyoca Arquitetura & Design", "", 1, "C", false, 0, "")
		doc.SetLineWidth(0.5)
		doc.SetDrawColor(200, 200, 200)
		doc.Line(10, doc.GetY()+3, 200, doc.GetY()+3)
		doc.Ln(8)
	})
	doc.SetFooterFunc(func() {
		doc.SetY(-20)
		doc.SetFont("Arial", "I", 8)
		doc.SetTextColor(128, 128, 128)
		doc.CellFormat(0, 10,
			fmt.Sprintf("Página %d", doc.PageNo()), "", 0, "C", false, 0, "")
	})

	doc.AddPage()
	renderProjectInfo(doc, tr, model)
	renderFinancialSummary(doc, tr, model)
	renderStatistics(doc, tr, model)
	renderCategories(doc, tr, model)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func renderProjectInfo(doc *fpdf.Fpdf, tr func(string) string, model *core.ReportModel) {
	doc.SetFont("Arial", "B", 14)
	doc.SetTextColor(0, 0, 0)
	doc.CellFormat(0, 10, tr("INFORMAÇÕES DO PROJETO"), "", 1, "L", false, 0, "")

	doc.SetFont("Arial", "", 11)
	doc.SetTextColor(60, 60, 60)
	infoLine(doc, tr, "Nome do Projeto", model.ProjectName)
	infoLine(doc, tr, "Status", string(model.Status))
	infoLine(doc, tr, "Início da Obra", model.CreatedAt.Format(dateLayout))
	if model.CompletedAt != nil {
		infoLine(doc, tr, "Conclusão", model.CompletedAt.Format(dateLayout))
	}
	infoLine(doc, tr, "Data do Relatório", model.GeneratedAt.Format(dateLayout+" 15:04"))
	doc.Ln(8)
}

func infoLine(doc *fpdf.Fpdf, tr func(string) string, label, value string) {
	doc.CellFormat(0, 7, tr(label+": "+value), "", 1, "L", false, 0, "")
}

func renderFinancialSummary(doc *fpdf.Fpdf, tr func(string) string, model *core.ReportModel) {
	doc.SetFillColor(52, 168, 83)
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Arial", "B", 13)
	doc.CellFormat(0, 10, tr("RESUMO FINANCEIRO"), "", 1, "C", true, 0, "")
	doc.Ln(3)

	doc.SetFont("Arial", "B", 12)
	doc.SetTextColor(0, 0, 0)
	amountLine(doc, tr, "Orçamento", model.Budget.BRL())
	amountLine(doc, tr, "Investido", model.Spent.BRL())

	if model.Overrun {
		doc.SetTextColor(220, 53, 69)
		amountLine(doc, tr, "Estouro", model.Remaining.Abs().BRL())
	} else {
		doc.SetTextColor(34, 139, 34)
		amountLine(doc, tr, "Economia", model.Remaining.BRL())
	}

	doc.SetTextColor(0, 0, 0)
	doc.SetFont("Arial", "", 11)
	doc.CellFormat(0, 8,
		tr(fmt.Sprintf("Percentual Utilizado: %.1f%%", model.PercentUsed)), "", 1, "L", false, 0, "")
	doc.Ln(6)
}

func amountLine(doc *fpdf.Fpdf, tr func(string) string, label, amount string) {
	doc.CellFormat(60, 8, tr(label+":"), "", 0, "L", false, 0, "")
	doc.CellFormat(130, 8, tr(amount), "", 1, "R", false, 0, "")
}

func renderStatistics(doc *fpdf.Fpdf, tr func(string) string, model *core.ReportModel) {
	if model.ItemCount == 0 {
		doc.SetFont("Arial", "I", 11)
		doc.SetTextColor(128, 128, 128)
		doc.CellFormat(0, 10, tr("Nenhuma despesa registrada para esta obra."), "", 1, "C", false, 0, "")
		doc.SetTextColor(0, 0, 0)
		return
	}

	doc.SetFont("Arial", "B", 11)
	doc.SetTextColor(0, 0, 0)
	doc.CellFormat(0, 8, tr("ESTATÍSTICAS DO PROJETO"), "", 1, "L", false, 0, "")

	doc.SetFont("Arial", "", 10)
	doc.CellFormat(60, 6, tr("Total de Itens:"), "", 0, "L", false, 0, "")
	doc.CellFormat(130, 6, fmt.Sprintf("%d itens", model.ItemCount), "", 1, "R", false, 0, "")
	doc.CellFormat(60, 6, tr("Média por Item:"), "", 0, "L", false, 0, "")
	doc.CellFormat(130, 6, tr(model.AverageValue.BRL()), "", 1, "R", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Arial", "B", 11)
	doc.CellFormat(0, 8, tr("VISÃO POR CATEGORIA"), "", 1, "L", false, 0, "")
	doc.SetFont("Arial", "", 10)
	for _, cat := range model.Categories {
		doc.CellFormat(100, 6, tr(cat.Name+":"), "", 0, "L", false, 0, "")
		doc.CellFormat(90, 6,
			tr(fmt.Sprintf("%d itens (%.1f%%)", cat.Count, cat.PercentOfSpent)), "", 1, "R", false, 0, "")
	}
	doc.Ln(6)
}

func renderCategories(doc *fpdf.Fpdf, tr func(string) string, model *core.ReportModel) {
	if len(model.Categories) == 0 {
		return
	}

	doc.SetFillColor(100, 149, 237)
	doc.SetTextColor(255, 255, 255)
	doc.SetFont("Arial", "B", 12)
	doc.CellFormat(0, 10, tr("ANÁLISE DETALHADA DE INVESTIMENTOS"), "", 1, "C", true, 0, "")
	doc.Ln(4)

	for _, cat := range model.Categories {
		doc.SetFillColor(244, 244, 244)
		doc.SetTextColor(0, 0, 0)
		doc.SetFont("Arial", "B", 11)
		doc.CellFormat(0, 8,
			tr(fmt.Sprintf("%s - %d itens", cat.Name, cat.Count)), "", 1, "L", true, 0, "")

		doc.SetFont("Arial", "B", 9)
		doc.SetFillColor(220, 220, 220)
		doc.CellFormat(8, 7, "#", "1", 0, "C", true, 0, "")
		doc.CellFormat(92, 7, tr("Descrição"), "1", 0, "C", true, 0, "")
		doc.CellFormat(30, 7, "Valor", "1", 0, "C", true, 0, "")
		doc.CellFormat(30, 7, "Acumulado", "1", 0, "C", true, 0, "")
		doc.CellFormat(30, 7, "Data", "1", 1, "C", true, 0, "")

		doc.SetFont("Arial", "", 9)
		for i, line := range cat.Lines {
			fill := i%2 == 0
			doc.SetFillColor(249, 249, 249)

			name := line.Name
			if len(name) > 40 {
				name = name[:37] + "..."
			}
			doc.CellFormat(8, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", fill, 0, "")
			doc.CellFormat(92, 6, tr(name), "1", 0, "L", fill, 0, "")
			doc.CellFormat(30, 6, tr(line.Value.BRL()), "1", 0, "R", fill, 0, "")
			doc.CellFormat(30, 6, tr(line.Running.BRL()), "1", 0, "R", fill, 0, "")
			doc.CellFormat(30, 6, line.CreatedAt.Format(dateLayout), "1", 1, "C", fill, 0, "")
		}

		doc.SetFillColor(230, 230, 250)
		doc.SetFont("Arial", "B", 10)
		doc.CellFormat(100, 8, tr("SUBTOTAL "+cat.Name+":"), "", 0, "L", true, 0, "")
		doc.CellFormat(90, 8, tr(cat.Subtotal.BRL()), "", 1, "R", true, 0, "")
		doc.Ln(4)
	}
}

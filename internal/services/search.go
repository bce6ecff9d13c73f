package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/rtucker-mozilla/minventory/internal/models"
)

// Quicksearch matches hostname (case-insensitive), serial and notes
// substrings or an exact asset tag. Results are ordered by hostname.
func (s *SystemService) Quicksearch(term string) ([]models.System, error) {
	var systems []models.System
	like := LikeContains(term)
	err := withRelated(s.db).
		Where(likeExpr("LOWER(hostname)")+" OR "+likeExpr("serial")+" OR "+likeExpr("notes")+" OR asset_tag = ?",
			strings.ToLower(like), like, like, term).
		Order("hostname").
		Find(&systems).Error
	return systems, err
}

// AutocompleteResult follows the jQuery autocomplete response format.
type AutocompleteResult struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
	Data        []uint   `json:"data"`
}

func (s *SystemService) Autocomplete(query string) (*AutocompleteResult, error) {
	var systems []models.System
	if err := s.db.Select("id", "hostname").
		Where(likeExpr("LOWER(hostname)"), strings.ToLower(LikeContains(query))).
		Order("hostname").
		Find(&systems).Error; err != nil {
		return nil, err
	}
	result := &AutocompleteResult{Query: query, Suggestions: []string{}, Data: []uint{}}
	for _, sys := range systems {
		result.Suggestions = append(result.Suggestions, sys.Hostname)
		result.Data = append(result.Data, sys.ID)
	}
	return result, nil
}

// DataTableColumns are the sortable columns of the system table.
var DataTableColumns = []string{
	"hostname", "serial", "asset_tag", "server_model", "system_rack", "oob_ip", "system_status",
}

// DataTableRequest is the legacy datatables server-side protocol.
type DataTableRequest struct {
	Echo          string `form:"sEcho"`
	Search        string `form:"sSearch"`
	DisplayStart  int    `form:"iDisplayStart"`
	DisplayLength int    `form:"iDisplayLength"`
	SortCol       int    `form:"iSortCol_0"`
	SortDir       string `form:"sSortDir_0"`
	// ReadOnly hides system ids from anonymous viewers.
	ReadOnly bool `form:"-"`
}

type DataTableResponse struct {
	Echo                string     `json:"sEcho"`
	TotalRecords        int64      `json:"iTotalRecords"`
	TotalDisplayRecords int64      `json:"iTotalDisplayRecords"`
	Data                [][]string `json:"aaData"`
}

type tableRow struct {
	id       uint
	cells    map[string]string
	rackID   string
	hostname string
}

// DataTable pages, searches and sorts systems for the system list page.
// A search term starting with "/" is a hostname regular expression.
func (s *SystemService) DataTable(req *DataTableRequest) (*DataTableResponse, error) {
	if req.DisplayLength <= 0 {
		req.DisplayLength = 100
	}
	if req.DisplayStart < 0 {
		req.DisplayStart = 0
	}
	sortCol := DataTableColumns[0]
	if req.SortCol >= 0 && req.SortCol < len(DataTableColumns) {
		sortCol = DataTableColumns[req.SortCol]
	}

	query := s.db.Model(&models.System{})
	if req.Search != "" {
		ids, err := s.searchIDs(req.Search)
		if err != nil {
			return nil, err
		}
		query = query.Where("id IN ?", ids)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var systems []models.System
	if err := withRelated(query).Order("id").Offset(req.DisplayStart).Limit(req.DisplayLength).Find(&systems).Error; err != nil {
		return nil, err
	}

	rows := make([]tableRow, 0, len(systems))
	for _, sys := range systems {
		rows = append(rows, newTableRow(sys, req.ReadOnly))
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return NaturalLess(rows[i].cells[sortCol], rows[j].cells[sortCol])
	})
	if req.SortDir == "desc" {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	resp := &DataTableResponse{
		Echo:                req.Echo,
		TotalRecords:        total,
		TotalDisplayRecords: total,
		Data:                make([][]string, 0, len(rows)),
	}
	for _, r := range rows {
		id := strconv.FormatUint(uint64(r.id), 10)
		resp.Data = append(resp.Data, []string{
			id + "," + r.hostname,
			r.cells["serial"],
			r.cells["asset_tag"],
			r.cells["server_model"],
			r.rackID + "," + r.cells["system_rack"],
			r.cells["oob_ip"],
			r.cells["system_status"],
			id,
		})
	}
	return resp, nil
}

func newTableRow(sys models.System, readOnly bool) tableRow {
	row := tableRow{
		id:       sys.ID,
		hostname: strings.TrimSpace(sys.Hostname),
		cells: map[string]string{
			"hostname":  strings.TrimSpace(sys.Hostname),
			"serial":    strings.TrimSpace(sys.Serial),
			"asset_tag": strings.TrimSpace(sys.AssetTag),
			"oob_ip":    strings.TrimSpace(sys.OOBIP),
		},
	}
	if readOnly {
		row.id = 0
	}
	if sys.ServerModel != nil {
		row.cells["server_model"] = sys.ServerModel.String()
	}
	if sys.SystemRack != nil {
		order := "None"
		if sys.RackOrder != nil {
			order = strconv.FormatFloat(*sys.RackOrder, 'f', 2, 64)
		}
		row.cells["system_rack"] = fmt.Sprintf("%s - %s", sys.SystemRack.String(), order)
		row.rackID = strconv.FormatUint(uint64(sys.SystemRack.ID), 10)
	}
	if sys.SystemStatus != nil {
		row.cells["system_status"] = sys.SystemStatus.Status
	}
	return row
}

// searchIDs returns the ids of systems matching a table search term.
func (s *SystemService) searchIDs(term string) ([]uint, error) {
	var regexIDs []uint
	useRegex := false

	if strings.HasPrefix(term, "/") && len(term) > 1 {
		term = term[1:]
		// an invalid expression falls back to a substring match
		if re, err := regexp.Compile(term); err == nil {
			useRegex = true
			var systems []models.System
			if err := s.db.Select("id", "hostname").Find(&systems).Error; err != nil {
				return nil, err
			}
			for _, sys := range systems {
				if re.MatchString(sys.Hostname) {
					regexIDs = append(regexIDs, sys.ID)
				}
			}
		}
	}

	like := LikeContains(strings.ToLower(term))
	conds := []string{likeExpr("LOWER(serial)"), likeExpr("LOWER(notes)"), "asset_tag = ?", likeExpr("LOWER(oob_ip)")}
	args := []interface{}{like, like, term, like}
	if !useRegex {
		conds = append(conds, likeExpr("LOWER(hostname)"))
		args = append(args, like)
	}

	var matched []uint
	if err := s.db.Model(&models.System{}).
		Where(strings.Join(conds, " OR "), args...).
		Or("id IN (?)", s.db.Model(&models.KeyValue{}).Select("system_id").Where(likeExpr("LOWER(value)"), like)).
		Pluck("id", &matched).Error; err != nil {
		return nil, err
	}

	seen := map[uint]bool{}
	out := make([]uint, 0, len(regexIDs)+len(matched))
	for _, id := range append(regexIDs, matched...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// NaturalLess compares strings treating digit runs as numbers, so
// "web2" sorts before "web10".
func NaturalLess(a, b string) bool {
	ca, cb := alphanumChunks(a), alphanumChunks(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		x, y := ca[i], cb[i]
		xn, xerr := strconv.Atoi(x)
		yn, yerr := strconv.Atoi(y)
		switch {
		case xerr == nil && yerr == nil:
			if xn != yn {
				return xn < yn
			}
		case xerr == nil:
			return true
		case yerr == nil:
			return false
		default:
			if x != y {
				return x < y
			}
		}
	}
	return len(ca) < len(cb)
}

func alphanumChunks(s string) []string {
	var chunks []string
	var cur strings.Builder
	digit := false
	for i, r := range s {
		isDigit := unicode.IsDigit(r)
		if i > 0 && isDigit != digit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		digit = isDigit
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

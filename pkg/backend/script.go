package backend

import (
	"fmt"
	"strings"

	"github.com/go-go-golems/orca/pkg/protocol"
)

// Corporate entities and the suppliers handled under each, in driver order.
var (
	CompaniesKR = []string{"AU OPTRONICS / Monitor", "BOEVT / MONITOR", "TCL MOKA / Monitor", "TCL TTE / Monitor", "TPV / MNT"}
	CompaniesCH = []string{"GAO CHUANG / Monitor", "KTC / Commercial Display", "MO JIA / Monitor"}
)

const AllSuppliers = "all"

// DriverScript returns the frames a GLOP driver run emits for product and
// supplier. supplier is "all" or a case-insensitive substring of a company.
func DriverScript(product, supplier string) []protocol.Frame {
	kr := filterCompanies(CompaniesKR, supplier)
	ch := filterCompanies(CompaniesCH, supplier)
	if len(kr) == 0 && len(ch) == 0 {
		return []protocol.Frame{
			protocol.StatusFrame("대상 업체 없음", protocol.SeverityRejected),
			protocol.ErrorFrame(fmt.Sprintf("알 수 없는 업체: %s", supplier)),
		}
	}

	site := strings.ToUpper(product)
	if site == "" {
		site = "MNT"
	}

	frames := []protocol.Frame{
		protocol.StatusFrame("로그인 중", protocol.SeverityPending),
		protocol.LogFrame("로그인 시도 완료"),
		protocol.LogFrame("로딩 완료, 메뉴 선택 가능"),
	}
	if len(kr) > 0 {
		frames = append(frames,
			protocol.StatusFrame("LGEKR 업체 처리 중", protocol.SeverityActive),
			protocol.LogFrame(">>> LGEKR 관할 업체 처리 시작 <<<"),
		)
		for _, c := range kr {
			frames = append(frames, companyFrames(c, site)...)
		}
	}
	if len(ch) > 0 {
		frames = append(frames,
			protocol.StatusFrame("법인 전환 중", protocol.SeverityPending),
			protocol.LogFrame(">>> 법인 전환 시도 (LGEKR -> LGECH) <<<"),
			protocol.LogFrame("'OPEN' 탭 클릭 완료"),
			protocol.LogFrame("iframe 전환 성공"),
			protocol.LogFrame("'LGECH' 선택 완료"),
			protocol.LogFrame("법인 전환 후 로딩 완료"),
			protocol.StatusFrame("LGECH 업체 처리 중", protocol.SeverityActive),
			protocol.LogFrame(">>> LGECH 관할 업체 처리 시작 <<<"),
		)
		for _, c := range ch {
			frames = append(frames, companyFrames(c, site)...)
		}
		frames = append(frames,
			protocol.LogFrame(">>> 최종 원복 시도 (LGECH -> LGEKR) <<<"),
			protocol.LogFrame("'LGEKR' 선택 완료"),
		)
	}
	frames = append(frames, protocol.CompleteFrame())
	return frames
}

func companyFrames(company, site string) []protocol.Frame {
	file := strings.ReplaceAll(strings.SplitN(company, " /", 2)[0], " ", "_") + ".xls"
	return []protocol.Frame{
		protocol.LogFrame(fmt.Sprintf("--- [%s] 처리 시작 ---", company)),
		protocol.LogFrame(fmt.Sprintf("업체 선택 완료: %s", company)),
		protocol.LogFrame("하위 Shipping & Invoicing 메뉴 클릭 완료"),
		protocol.LogFrame("엑셀 다운로드 버튼 클릭 완료"),
		protocol.LogFrame("파일 다운로드 대기 중 (Max 60s)..."),
		protocol.LogFrame(fmt.Sprintf("새 파일 감지됨: %s", file)),
		protocol.LogFrame(fmt.Sprintf("DB 저장 중: %s (Site: %s)", file, site)),
		protocol.LogFrame("DB 저장 완료"),
		protocol.LogFrame(fmt.Sprintf("--- [%s] 처리 완료 ---", company)),
	}
}

func filterCompanies(companies []string, supplier string) []string {
	s := strings.ToLower(strings.TrimSpace(supplier))
	if s == "" || s == AllSuppliers {
		return append([]string{}, companies...)
	}
	var out []string
	for _, c := range companies {
		if strings.Contains(strings.ToLower(c), s) {
			out = append(out, c)
		}
	}
	return out
}

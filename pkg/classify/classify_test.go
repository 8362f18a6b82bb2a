package classify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassify_Precedence(t *testing.T) {
	cases := []struct {
		text string
		want Category
	}{
		{"완료: success and error both present", CategorySuccess},
		{"업체 선택 완료: GAO CHUANG (GMZ)", CategorySuccess},
		{"iframe 전환 성공", CategorySuccess},
		{"모델 필터링 중 오류 발생: boom", CategoryError},
		{"법인 전환 실패: timeout", CategoryError},
		{"오류 후 재시도 성공", CategorySuccess},
		{"[알림] 다음 3개 모델은 제외되었습니다", CategoryHighlight},
		{">>> LGEKR 관할 업체 처리 시작 <<<", CategoryHighlight},
		{"[알림] 실패한 항목 없음", CategoryError},
		{"파일 다운로드 대기 중 (Max 60s)...", CategoryInfo},
		{"", CategoryInfo},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Classify(tc.text), tc.text)
	}
}

func TestClassify_EnglishTokensAreNotDefaults(t *testing.T) {
	require.Equal(t, CategoryInfo, Classify("success"))
	require.Equal(t, CategoryInfo, Classify("error: disk full"))
}

func TestClassifier_MergedMarkersKeepOrder(t *testing.T) {
	c := New(DefaultMarkers().Merge(Markers{
		Success: []string{"done", "완료", ""},
		Error:   []string{"error"},
	}))
	require.Equal(t, CategorySuccess, c.Classify("done with error"))
	require.Equal(t, CategoryError, c.Classify("error: disk full"))
	require.Equal(t, CategoryHighlight, c.Classify(">>> step"))

	m := DefaultMarkers().Merge(Markers{Success: []string{"완료"}})
	require.Equal(t, []string{"완료", "성공"}, m.Success)
}

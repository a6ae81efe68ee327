package usecase

import "strings"

// KeywordPolicy は銘柄名から派生キーワードを導出する差し替え可能なポリシーです。
// 派生ロジックは市場・言語に依存するヒューリスティックであるため、
// コアのパイプラインからは分離されています。
type KeywordPolicy interface {
	// DerivedKeywords は銘柄名から追加の検索キーワードを導出します。
	DerivedKeywords(stockName string) []string
}

// sectorSuffixPolicy は銘柄名に含まれる業種語からセクター固有の
// サフィックスを付与するデフォルトポリシーです。
type sectorSuffixPolicy struct{}

// NewSectorSuffixPolicy はデフォルトのKeywordPolicyを生成します。
func NewSectorSuffixPolicy() KeywordPolicy {
	return sectorSuffixPolicy{}
}

// sectorSuffixes は業種語ごとに付与するサフィックスの対応表です。
var sectorSuffixes = []struct {
	markers  []string
	suffixes []string
}{
	{markers: []string{"電機", "電子"}, suffixes: []string{"決算", "半導体"}},
	{markers: []string{"バイオ", "製薬", "薬品"}, suffixes: []string{"新薬", "治験"}},
	{markers: []string{"自動車", "モーター"}, suffixes: []string{"販売台数", "EV"}},
	{markers: []string{"銀行", "フィナンシャル"}, suffixes: []string{"金利", "決算"}},
}

// DerivedKeywords は「銘柄名 + サフィックス」形式のキーワードを返します。
// どの業種語にも一致しない場合は空スライスを返します。
func (sectorSuffixPolicy) DerivedKeywords(stockName string) []string {
	var out []string
	for _, s := range sectorSuffixes {
		for _, m := range s.markers {
			if strings.Contains(stockName, m) {
				for _, suf := range s.suffixes {
					out = append(out, stockName+" "+suf)
				}
				break
			}
		}
	}
	return out
}

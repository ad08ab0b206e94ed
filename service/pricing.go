package service

import "fmt"

// Fixed pricing contract, in credits.
const (
	CostPerPage        int64 = 300
	CostRegenerate     int64 = 300
	CostUpscale        int64 = 500
	CostVideo          int64 = 1200
	CostAudio          int64 = 200
	CostAdCampaign     int64 = 800
	CostCharacterForge int64 = 600
	CostLabImage       int64 = 300
)

// StartingBalance is granted to a fresh wallet.
const StartingBalance int64 = 1000

type CreditPack struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Price  string `json:"price"`
}

var CreditPacks = []CreditPack{
	{ID: "pack_500", Amount: 500, Price: "$4.99"},
	{ID: "pack_2000", Amount: 2000, Price: "$14.99"},
	{ID: "pack_5000", Amount: 5000, Price: "$29.99"},
}

// ProMonthlyGrant is credited when switching to the pro tier.
const ProMonthlyGrant int64 = 5000

// StoryRequest is a user brief for a full multi-page story run.
type StoryRequest struct {
	Theme     string
	Genre     string
	Style     string
	PageCount int
}

func (r StoryRequest) Cost() int64 {
	return CostPerPage * int64(r.PageCount)
}

// Brief kinds for the flat-cost single-asset flows.
const (
	BriefAd        = "ad"
	BriefCharacter = "character"
	BriefLabImage  = "lab_image"
	BriefLabVideo  = "lab_video"
)

// BriefRequest is a one-shot, template-priced generation (ad campaign,
// character forge, creative lab). It produces a single Asset.
type BriefRequest struct {
	Kind     string
	Prompt   string
	Audience string
	Style    string
}

func (r BriefRequest) Cost() int64 {
	switch r.Kind {
	case BriefAd:
		return CostAdCampaign
	case BriefCharacter:
		return CostCharacterForge
	case BriefLabVideo:
		return CostVideo
	default:
		return CostLabImage
	}
}

// RenderPrompt builds the provider prompt for the brief variant.
func (r BriefRequest) RenderPrompt() string {
	switch r.Kind {
	case BriefAd:
		if r.Audience != "" {
			return fmt.Sprintf("Professional advertising campaign visual for %s, targeting %s. Studio lighting, product photography.", r.Prompt, r.Audience)
		}
		return fmt.Sprintf("Professional advertising campaign visual for %s. Studio lighting, product photography.", r.Prompt)
	case BriefCharacter:
		return fmt.Sprintf("Full-body character concept sheet: %s. Neutral background, consistent design, front view.", r.Prompt)
	default:
		return r.Prompt
	}
}

// AssetType maps the brief to the asset log entry type.
func (r BriefRequest) AssetType() string {
	if r.Kind == BriefLabVideo {
		return "video"
	}
	return "image"
}

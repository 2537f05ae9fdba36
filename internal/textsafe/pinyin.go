// internal/textsafe/pinyin.go
package textsafe

// pinyinLexicon 常用中文词汇到拼音的映射
// 这是尽力而为的词表，不是完整的转写器；未收录的字由Sanitize打[CN]标记
var pinyinLexicon = map[string]string{
	// 常用组合词
	"为什么": "weishenme",
	"什么":  "shenme", "怎么": "zenme", "那么": "name", "这么": "zheme",
	"不过": "buguo", "但是": "danshi", "然而": "raner", "因为": "yinwei", "所以": "suoyi",
	"如果": "ruguo", "要是": "yaoshi", "虽然": "suiran", "虽说": "suishuo", "尽管": "jinguan",
	"可能": "keneng", "也许": "yexu", "大概": "dagai", "应该": "yinggai", "必须": "bixu",
	"已经": "yijing", "正在": "zhengzai", "刚才": "gangcai", "现在": "xianzai", "以后": "yihou",
	"学校": "xuexiao", "老师": "laoshi", "学生": "xuesheng", "同学": "tongxue", "朋友": "pengyou",
	"家人": "jiaren", "父亲": "fuqin", "母亲": "muqin", "儿子": "erzi", "女儿": "nüer",
	"哥哥": "gege", "姐姐": "jiejie", "弟弟": "didi", "妹妹": "meimei", "爷爷": "yeye", "奶奶": "nainai",

	// 基础词汇
	"的": "de", "了": "le", "在": "zai", "是": "shi", "我": "wo", "有": "you", "和": "he", "就": "jiu",
	"不": "bu", "人": "ren", "都": "dou", "一": "yi", "个": "ge", "上": "shang", "也": "ye", "很": "hen",
	"到": "dao", "说": "shuo", "要": "yao", "去": "qu", "你": "ni", "会": "hui", "着": "zhe", "没": "mei",
	"看": "kan", "好": "hao", "自": "zi", "己": "ji", "面": "mian", "前": "qian", "最": "zui", "新": "xin",

	// 人称与指代
	"他": "ta", "她": "ta", "它": "ta", "们": "men", "这": "zhe", "那": "na", "什": "shen", "么": "me",
	"哪": "na", "里": "li", "怎": "zen", "样": "yang", "多": "duo", "少": "shao", "几": "ji",

	// 动词
	"来": "lai", "走": "zou", "跑": "pao", "飞": "fei", "游": "you", "坐": "zuo", "站": "zhan", "躺": "tang",
	"吃": "chi", "喝": "he", "睡": "shui", "醒": "xing", "想": "xiang", "知": "zhi", "道": "dao", "听": "ting",
	"做": "zuo", "给": "gei", "拿": "na", "放": "fang", "开": "kai", "关": "guan", "买": "mai", "卖": "mai",
	"找": "zhao", "等": "deng", "帮": "bang", "打": "da", "写": "xie", "读": "du", "学": "xue", "教": "jiao",

	// 形容词
	"大": "da", "小": "xiao", "高": "gao", "低": "di", "长": "chang", "短": "duan", "宽": "kuan", "窄": "zhai",
	"快": "kuai", "慢": "man", "早": "zao", "晚": "wan", "旧": "jiu", "年": "nian", "轻": "qing",
	"美": "mei", "丑": "chou", "胖": "pang", "瘦": "shou", "强": "qiang", "弱": "ruo", "聪": "cong", "明": "ming",

	// 方位
	"东": "dong", "南": "nan", "西": "xi", "北": "bei", "中": "zhong", "内": "nei", "外": "wai",
	"左": "zuo", "右": "you", "后": "hou", "旁": "pang", "边": "bian", "间": "jian", "处": "chu",

	// 时间
	"月": "yue", "日": "ri", "天": "tian", "时": "shi", "分": "fen", "秒": "miao",
	"今": "jin", "昨": "zuo", "现": "xian", "过": "guo", "将": "jiang", "未": "wei",
	"春": "chun", "夏": "xia", "秋": "qiu", "冬": "dong", "午": "wu", "夜": "ye",

	// 地点
	"家": "jia", "校": "xiao", "园": "yuan", "公": "gong", "司": "si", "店": "dian", "场": "chang",
	"路": "lu", "街": "jie", "桥": "qiao", "山": "shan", "水": "shui", "河": "he", "海": "hai",
	"城": "cheng", "市": "shi", "镇": "zhen", "村": "cun", "国": "guo", "省": "sheng", "县": "xian",

	// 剧本相关
	"剧": "ju", "本": "ben", "角": "jue", "色": "se", "演": "yan", "员": "yuan", "导": "dao",
	"编": "bian", "制": "zhi", "片": "pian", "电": "dian", "影": "ying", "视": "shi", "频": "pin",
	"舞": "wu", "台": "tai", "话": "hua", "音": "yin", "乐": "le", "歌": "ge",

	// 情感
	"爱": "ai", "恨": "hen", "喜": "xi", "欢": "huan", "怒": "nu", "哀": "ai",
	"兴": "xing", "伤": "shang", "心": "xin", "害": "hai", "怕": "pa", "担": "dan",
	"紧": "jin", "张": "zhang", "松": "song", "平": "ping", "静": "jing", "激": "ji", "动": "dong",
}
